package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag from short user text. Entities escaped by the
// policy are decoded again so plain punctuation survives storage unchanged.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}
