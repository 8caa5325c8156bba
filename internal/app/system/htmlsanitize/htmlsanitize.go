// Package htmlsanitize strips markup from visitor-supplied text.
//
// Review text and majors are plain text. Drafts carrying markup are
// rejected at validation (IsPlainText); PlainText is the last line before
// storage so every consumer can render the value as-is.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds PlainText. Each pass peels one layer of entity encoding.
const maxPasses = 8

// PlainText removes all tags, drops script and style bodies, decodes
// entities and trims outer whitespace. It repeats until the text stops
// changing, so entity-encoded markup cannot survive as live tags. Input
// that is still changing after maxPasses is returned escaped.
func PlainText(s string) string {
	out := strings.TrimSpace(s)
	for i := 0; i < maxPasses; i++ {
		if out == "" {
			return ""
		}
		next := strings.TrimSpace(html.UnescapeString(strict.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	return strict.Sanitize(out)
}

// IsPlainText reports whether s would be stored exactly as typed (after
// trimming). Text with tags, entity-encoded tags, or angle-bracket runs the
// parser reads as a tag is not plain text.
func IsPlainText(s string) bool {
	return PlainText(s) == strings.TrimSpace(s)
}
