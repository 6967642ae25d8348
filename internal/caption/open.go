package caption

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns caption bytes as UTF-8 text. A UTF-8 BOM is stripped;
// bytes that are not valid UTF-8 are assumed to be GBK.
func Decode(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	reader := transform.NewReader(
		bytes.NewReader(data),
		simplifiedchinese.GBK.NewDecoder(),
	)
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode captions as GBK: %w", err)
	}
	return string(decoded), nil
}

// reads, decodes and parses a caption file
func Open(path string) (*Index, error) {
	return NewParser().Open(path)
}

func (p *Parser) Open(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open caption file: %w", err)
	}
	text, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p.ParseIndex(text), nil
}
