// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Defaults for the task list.
const (
	DefaultPerPage = 3
	DefaultOrphans = 1
)

// PageParam is the query parameter carrying the page number.
const PageParam = "page"

// ErrInvalidPage is returned for a page value that is not a number, or is
// outside 1..NumPages. Handlers surface it as 404.
var ErrInvalidPage = errors.New("paging: invalid page")

// Paginator computes offset pages where a short trailing remainder of at most
// Orphans items is folded into the previous page instead of standing alone.
type Paginator struct {
	PerPage int
	Orphans int
}

// New returns a Paginator, falling back to the defaults for bad values.
func New(perPage, orphans int) Paginator {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if orphans < 0 || orphans >= perPage {
		orphans = 0
	}
	return Paginator{PerPage: perPage, Orphans: orphans}
}

// NumPages returns the page count for count items. There is always at least
// one page, even when the list is empty.
func (p Paginator) NumPages(count int64) int {
	per := int64(p.PerPage)
	if per < 1 {
		per = DefaultPerPage
	}
	hits := count - int64(p.Orphans)
	if hits < 1 {
		hits = 1
	}
	return int((hits + per - 1) / per)
}

// Page describes one window of a list.
type Page struct {
	Number   int
	NumPages int
	Count    int64

	// Skip and Limit are the Mongo window for this page.
	Skip  int64
	Limit int64

	// Start and End are 1-based display indexes (both 0 for an empty list).
	Start int64
	End   int64
}

// HasPrev reports whether a previous page exists.
func (pg Page) HasPrev() bool { return pg.Number > 1 }

// HasNext reports whether a following page exists.
func (pg Page) HasNext() bool { return pg.Number < pg.NumPages }

// PrevNumber is the previous page number (valid when HasPrev).
func (pg Page) PrevNumber() int { return pg.Number - 1 }

// NextNumber is the next page number (valid when HasNext).
func (pg Page) NextNumber() int { return pg.Number + 1 }

// ApplyToFind sets skip and limit on find.
func (pg Page) ApplyToFind(find *options.FindOptions) *options.FindOptions {
	return find.SetSkip(pg.Skip).SetLimit(pg.Limit)
}

// Page returns page number for a list of count items.
func (p Paginator) Page(number int, count int64) (Page, error) {
	n := p.NumPages(count)
	if number < 1 || number > n {
		return Page{}, ErrInvalidPage
	}
	per := int64(p.PerPage)
	bottom := int64(number-1) * per
	top := bottom + per
	if top+int64(p.Orphans) >= count {
		top = count
	}
	if top < bottom {
		top = bottom
	}
	pg := Page{
		Number:   number,
		NumPages: n,
		Count:    count,
		Skip:     bottom,
		Limit:    top - bottom,
	}
	if count > 0 {
		pg.Start = bottom + 1
		pg.End = top
	}
	return pg, nil
}

// Resolve interprets a raw page value: empty means 1, "last" means the final
// page, anything else must be a number in range.
func (p Paginator) Resolve(raw string, count int64) (Page, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return p.Page(1, count)
	case raw == "last":
		return p.Page(p.NumPages(count), count)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Page{}, ErrInvalidPage
	}
	return p.Page(n, count)
}

// ParsePage extracts the raw "page" query parameter.
func ParsePage(r *http.Request) string {
	return query.Get(r, PageParam)
}
