package content

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxSearchRunes = 100

// sqlKeywords are removed from search terms, in order.
var sqlKeywords = []string{
	"--", ";", "/*", "*/", "xp_",
	"exec", "select", "insert", "update", "delete", "drop", "alter",
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// TruncateRunes keeps at most the first n characters of the input.
func TruncateRunes(n int) TransformerFunc {
	return Pure(func(input []byte) []byte {
		if utf8.RuneCount(input) <= n {
			return input
		}
		offset := 0
		for range n {
			_, size := utf8.DecodeRune(input[offset:])
			offset += size
		}
		return input[:offset]
	})
}

// EscapeQuotes doubles every single quote.
func EscapeQuotes() TransformerFunc {
	return Pure(func(input []byte) []byte {
		return bytes.ReplaceAll(input, []byte("'"), []byte("''"))
	})
}

// StripKeywords removes every occurrence of each keyword, ignoring ASCII case,
// one keyword at a time in the order given. Removing a keyword may join
// fragments into an occurrence of a later keyword, which is then removed too.
// Non-ASCII characters never match ASCII letters, so "ſ" is not an "s".
func StripKeywords(keywords ...string) TransformerFunc {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, keyword := range keywords {
		patterns[i] = regexp.MustCompile(asciiFoldPattern(keyword))
	}
	return Pure(func(input []byte) []byte {
		for _, pattern := range patterns {
			input = pattern.ReplaceAll(input, nil)
		}
		return input
	})
}

// asciiFoldPattern matches keyword literally except that ASCII letters match
// either case.
func asciiFoldPattern(keyword string) string {
	var pattern strings.Builder
	for _, r := range keyword {
		lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
		if r < utf8.RuneSelf && lower != upper {
			pattern.WriteString("[" + string(lower) + string(upper) + "]")
		} else {
			pattern.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return pattern.String()
}

// StripNonAlphanumeric removes every character other than ASCII letters and
// digits, including whitespace.
func StripNonAlphanumeric() TransformerFunc {
	return Pure(func(input []byte) []byte {
		return append([]byte{}, nonAlphanumeric.ReplaceAll(input, nil)...)
	})
}
