// internal/app/system/search/search.go
package search

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Param is the query parameter holding the search pattern.
const Param = "search"

// MaxLen is the longest pattern accepted, in characters.
const MaxLen = 100

// Error is a validation failure on the search field. The list falls back to
// the unfiltered set when one is returned.
type Error struct {
	Message string
}

func (e *Error) Error() string { return "search: " + e.Message }

// Query is a validated search. The zero value matches everything.
type Query struct {
	Pattern string
}

// Empty reports whether the query applies no filter.
func (q Query) Empty() bool { return q.Pattern == "" }

// Parse trims raw and validates it as a regular expression. A blank value
// yields an empty Query. The pattern is not escaped: metacharacters keep
// their regex meaning.
func Parse(raw string) (Query, error) {
	p := normalize.QueryParam(raw)
	if p == "" {
		return Query{}, nil
	}
	if utf8.RuneCountInString(p) > MaxLen {
		return Query{}, &Error{Message: "Search must be 100 characters or fewer."}
	}
	if _, err := regexp.Compile("(?i)" + p); err != nil {
		return Query{}, &Error{Message: "Search is not a valid pattern."}
	}
	return Query{Pattern: p}, nil
}

// Filter matches documents where any of fields matches the pattern,
// case-insensitively. An empty Query returns an empty filter.
func (q Query) Filter(fields ...string) bson.M {
	if q.Empty() || len(fields) == 0 {
		return bson.M{}
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: bson.M{"$regex": q.Pattern, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

// Mongo error codes for a pattern the server's regex engine rejects.
const (
	codeBadValue     = 2
	codeInvalidRegex = 51091
)

// IsPatternError reports whether err is the server rejecting a pattern that
// passed local validation (the two regex dialects differ at the edges).
func IsPatternError(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(codeInvalidRegex) || (se.HasErrorCode(codeBadValue) && se.HasErrorMessage("regular expression"))
}
