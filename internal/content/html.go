package content

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// nbspPattern matches both the HTML entity &nbsp; (case insensitive) and the
// actual unicode non-breaking space character (U+00A0).
var nbspPattern = regexp.MustCompile("(?i)&nbsp;|\xc2\xa0")

// NormalizeNBSP replaces non-breaking space entities and characters with
// regular spaces.
func NormalizeNBSP() TransformerFunc {
	return Pure(func(input []byte) []byte {
		return nbspPattern.ReplaceAll(input, []byte{' '})
	})
}

// SanitizeHTML applies sanitization rules to HTML input, stripping unsupported
// tags and attributes.
func SanitizeHTML() TransformerFunc {
	htmlSanitizer := sanitizer()
	return Pure(htmlSanitizer.SanitizeBytes)
}

// sanitizer is a reduction of [bluemonday.UGCPolicy] to the elements goldmark
// emits for descriptions.
// Differences:
//
//   - Target _blank and noreferrer for links
//   - No image elements (to avoid hot-linking)
//   - No headings above h3, so descriptions cannot outrank the page title
func sanitizer() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()

	policy.AllowStandardURLs()
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	policy.AllowElements(
		"b",
		"blockquote",
		"br",
		"code",
		"del",
		"em",
		"h3", "h4", "h5", "h6",
		"hr",
		"i",
		"p",
		"pre",
		"s",
		"strong",
		"sub",
		"sup",
	)

	policy.AllowAttrs("href").
		OnElements("a")

	policy.AllowLists()
	policy.AllowTables()

	return policy
}
