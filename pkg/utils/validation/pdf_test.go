package validation

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var minimalPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestDecodePDF(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(minimalPDF)

	data, err := DecodePDF(encoded)
	require.NoError(t, err)
	assert.Equal(t, minimalPDF, data)

	data, err = DecodePDF("data:application/pdf;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, minimalPDF, data)
}

func TestDecodePDFErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrFileRequired},
		{"not base64", "!!!not-base64!!!", ErrEncoding},
		{"not a pdf", base64.StdEncoding.EncodeToString([]byte("hello world")), ErrFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePDF(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF(minimalPDF))
	assert.False(t, IsPDF([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
}
