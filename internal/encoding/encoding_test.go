package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaresmg/liber/internal/encoding"
)

func decodeAll(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewReader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewReader_UTF8Passthrough(t *testing.T) {
	input := "isbn;title;author;units\n9789722040890;Memorial do Convento;José Saramago;3\n"
	assert.Equal(t, input, decodeAll(t, []byte(input)))
}

func TestNewReader_UTF8BOMStripped(t *testing.T) {
	content := "isbn;title;author;units\n"
	input := append([]byte{0xEF, 0xBB, 0xBF}, content...)
	assert.Equal(t, content, decodeAll(t, input))
}

func TestNewReader_Windows1252(t *testing.T) {
	// "José" with é as 0xE9.
	input := []byte{'J', 'o', 's', 0xE9, '\n'}
	assert.Equal(t, "José\n", decodeAll(t, input))
}

func TestNewReader_UTF16LE(t *testing.T) {
	// BOM FF FE followed by "ab" in UTF-16LE.
	input := []byte{0xFF, 0xFE, 'a', 0x00, 'b', 0x00}
	assert.Equal(t, "ab", decodeAll(t, input))
}

func TestNewReader_Empty(t *testing.T) {
	assert.Equal(t, "", decodeAll(t, nil))
}
