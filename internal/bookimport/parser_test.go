package bookimport_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaresmg/liber/internal/bookimport"
	"github.com/soaresmg/liber/internal/catalog"
)

func TestParse(t *testing.T) {
	manifest := strings.Join([]string{
		"isbn;title;author;units",
		"9789722040890;Memorial do Convento;José Saramago;3",
		"9780140449136;The Odyssey;Homer;1",
	}, "\n")

	rows, err := bookimport.New().Parse(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, catalog.ImportRow{
		ISBN:   "9789722040890",
		Title:  "Memorial do Convento",
		Author: "José Saramago",
		Units:  3,
	}, rows[0])
	assert.Equal(t, 1, rows[1].Units)
}

func TestParse_HeaderAfterBanner(t *testing.T) {
	manifest := strings.Join([]string{
		"Acquisitions report;;;",
		"Exported 2025-08-12;;;",
		"",
		"ISBN;Title;Author;Units",
		"9780140449136;The Odyssey;Homer;2",
	}, "\n")

	rows, err := bookimport.New().Parse(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "9780140449136", rows[0].ISBN)
}

func TestParse_NoAuthorColumn(t *testing.T) {
	manifest := "isbn;title;units\n9780140449136;The Odyssey;2\n"

	rows, err := bookimport.New().Parse(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Author)
}

func TestParse_SkipsBlankRows(t *testing.T) {
	manifest := "isbn;title;units\n9780140449136;The Odyssey;2\n;;\n"

	rows, err := bookimport.New().Parse(strings.NewReader(manifest))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "NoHeader",
			manifest: "some;random;file\n1;2;3\n",
			wantErr:  "no manifest header",
		},
		{
			name:     "MissingISBN",
			manifest: "isbn;title;units\n;The Odyssey;2\n",
			wantErr:  "row 2: missing isbn",
		},
		{
			name:     "MissingTitle",
			manifest: "isbn;title;units\n9780140449136;;2\n",
			wantErr:  "row 2: missing title",
		},
		{
			name:     "BadUnits",
			manifest: "isbn;title;units\n9780140449136;The Odyssey;many\n",
			wantErr:  "invalid units",
		},
		{
			name:     "ZeroUnits",
			manifest: "isbn;title;units\n9780140449136;The Odyssey;0\n",
			wantErr:  "invalid units",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bookimport.New().Parse(strings.NewReader(tt.manifest))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
