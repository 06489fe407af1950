package content

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// utf8BOM is the UTF-8 byte order mark that some editors add to files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UTF8Transformer converts input to UTF-8 based on the charset parameter of
// contentType, stripping the UTF-8 BOM if present. Without a charset, input is
// assumed to already be UTF-8; invalid sequences are replaced with U+FFFD.
func UTF8Transformer(contentType string) TransformerFunc {
	return func(input []byte) ([]byte, error) {
		enc, _, certain := charset.DetermineEncoding(input, contentType)
		if !certain {
			enc = unicode.UTF8
		}
		output, err := decodeToUTF8(input, enc)
		if err != nil {
			return nil, err
		}
		return bytes.TrimPrefix(output, utf8BOM), nil
	}
}

// decodeToUTF8 converts input bytes to UTF-8 using the given encoding.
func decodeToUTF8(input []byte, enc encoding.Encoding) ([]byte, error) {
	// UTF-8 and Nop encodings don't need conversion
	if enc == encoding.Nop || enc == unicode.UTF8 {
		return bytes.ToValidUTF8(input, []byte("�")), nil
	}

	reader := enc.NewDecoder().Reader(bytes.NewReader(input))
	output, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode to UTF-8: %w", err)
	}
	return output, nil
}
