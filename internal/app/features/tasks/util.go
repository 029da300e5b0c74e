// internal/app/features/tasks/util.go
package tasks

import (
	"net/url"
	"strconv"
)

func detailURL(id int64) string {
	return "/task/detail/" + strconv.FormatInt(id, 10)
}

// pageURL builds a list link that keeps the current search.
func pageURL(search string, page int) string {
	v := url.Values{}
	if search != "" {
		v.Set("search", search)
	}
	v.Set("page", strconv.Itoa(page))
	return "/?" + v.Encode()
}

func projectURL(id int64) string {
	return "/project/detail/" + strconv.FormatInt(id, 10)
}
