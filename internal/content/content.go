// Package content contains transformers to sanitize user input and render
// event descriptions.
package content

var (
	// Individual transformers.
	normalizeText  = NormalizeText()
	markdownToHTML = MarkdownToHTML()
	sanitizeHTML   = SanitizeHTML()

	// Pre-composed pipelines.
	descriptionPipeline = Chain(normalizeText, markdownToHTML, sanitizeHTML)
	searchPipeline      = Chain(
		TruncateRunes(maxSearchRunes),
		EscapeQuotes(),
		StripKeywords(sqlKeywords...),
		StripNonAlphanumeric(),
	)
)

// RenderDescription converts a Markdown event description into sanitized HTML
// safe for display.
func RenderDescription(input []byte) ([]byte, error) {
	return descriptionPipeline(input)
}

// SanitizeSearch normalizes a free-text search term before it reaches a query.
// The first 100 characters are kept, quotes are doubled, SQL comment markers
// and keywords are removed case-insensitively, and finally everything that is
// not an ASCII letter or digit is dropped. A nil input returns nil.
func SanitizeSearch(input []byte) []byte {
	output, _ := searchPipeline(input) // every step is infallible
	return output
}
