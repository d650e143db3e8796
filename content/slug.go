package content

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugSeparate = regexp.MustCompile(`[\s-]+`)
)

// NormalizeSlug turns text into a URL-safe, lower-case, hyphenated slug.
// Anything but ASCII letters, digits, underscore, whitespace and hyphen is
// dropped. The result of a slug is the slug itself.
func NormalizeSlug(text string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(text), "")
	s = slugSeparate.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
