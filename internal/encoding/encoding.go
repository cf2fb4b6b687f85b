// Package encoding normalizes uploaded manifest files to UTF-8. Legacy
// cataloguing tools export in a mix of UTF-8 (with or without BOM),
// UTF-16 and Windows-1252, and give no reliable way to tell which.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const headerSize = 2048

// NewReader wraps r so the content reads back as UTF-8 regardless of the
// source encoding. Resolution order: BOM, UTF-8 validation, chardet
// heuristic, Windows-1252 fallback.
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(headerSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek header: %w", err)
	}

	if enc := bomEncoding(head); enc != nil {
		return transform.NewReader(br, enc.NewDecoder()), nil
	}

	if validUTF8Prefix(head) {
		return br, nil
	}

	if enc := sniff(head); enc != nil {
		return transform.NewReader(br, enc.NewDecoder()), nil
	}

	// Legacy Windows exports are the common non-UTF-8 case.
	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

func bomEncoding(head []byte) encoding.Encoding {
	switch {
	case bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}):
		return unicode.UTF8BOM
	case bytes.HasPrefix(head, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(head, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	}

	return nil
}

// validUTF8Prefix reports whether head is valid UTF-8, ignoring a rune
// the peek window may have cut in half at the end.
func validUTF8Prefix(head []byte) bool {
	for trim := 0; trim < utf8.UTFMax && trim < len(head); trim++ {
		if utf8.Valid(head[:len(head)-trim]) {
			return true
		}
	}

	return len(head) == 0
}

func sniff(head []byte) encoding.Encoding {
	result, err := chardet.NewTextDetector().DetectBest(head)
	if err != nil {
		return nil
	}

	switch result.Charset {
	case "UTF-8":
		return unicode.UTF8
	case "UTF-16LE":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "UTF-16BE":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "ISO-8859-1", "windows-1252":
		return charmap.Windows1252
	case "ISO-8859-15":
		return charmap.ISO8859_15
	}

	return nil
}
