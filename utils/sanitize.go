package utils

import "github.com/microcosm-cc/bluemonday"

var (
	// richText allows the user-generated-content subset, for fields that
	// render as HTML (room descriptions, the notice banner).
	richText = bluemonday.UGCPolicy()
	// plainText strips all markup, for names and identifiers.
	plainText = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content against XSS, keeping safe markup.
func Sanitize(input string) string {
	return richText.Sanitize(input)
}

// SanitizeText strips every tag; use for team names, in-game IDs and other
// fields that are never rendered as HTML.
func SanitizeText(input string) string {
	return plainText.Sanitize(input)
}
