package content

import (
	"bytes"
	"regexp"
)

var (
	// Trailing whitespace on lines can cause issues and is never intentional.
	trailingWhitespace = regexp.MustCompile(`(?m)[ \t]+$`)

	// People sometimes try to center text by adding lots of leading whitespace,
	// which CommonMark renders as a code block. Matches 5+ leading spaces at
	// the start of a line.
	stripCenteringWhitespace = regexp.MustCompile(`(?m)^ {5,}`)

	// Runs of three or more blank lines collapse to a single paragraph break.
	excessiveBlankLines = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText cleans up UTF-8 text typed into a form into something as
// compatible as possible with CommonMark.
func NormalizeText() TransformerFunc {
	return Chain(NormalizeNBSP(), Pure(func(input []byte) []byte {
		// Normalize to Unix line endings first
		input = bytes.ReplaceAll(input, []byte("\r\n"), []byte("\n"))
		input = bytes.ReplaceAll(input, []byte("\r"), []byte("\n"))

		input = stripCenteringWhitespace.ReplaceAll(input, nil)
		input = trailingWhitespace.ReplaceAll(input, nil)
		input = excessiveBlankLines.ReplaceAll(input, []byte("\n\n"))
		return bytes.TrimSpace(input)
	}))
}
