// Package htmlsanitize cleans user-entered text before it is stored and
// prepares it for display.
//
// Task and project text is plain text. Markup typed into a form is stripped
// on the way in, and newlines become <br> on the way out.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element from s and returns plain text.
// Entities are decoded so the stored value is what the user meant to type;
// templates escape it again on output.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}

// PlainTextToHTML escapes s and turns line breaks into <br>.
func PlainTextToHTML(s string) template.HTML {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	esc := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(esc, "\n", "<br>"))
}
