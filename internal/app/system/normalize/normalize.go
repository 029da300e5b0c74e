// Package normalize centralizes the cleanup applied to user-supplied text
// before it is validated or stored.
package normalize

import (
	"strconv"
	"strings"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims surrounding whitespace. Case is preserved for display;
// uniqueness is enforced on the folded form.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query-string or form value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// ID parses a positive integer identifier from a path segment.
// ok is false for anything that is not a base-10 number greater than zero.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
