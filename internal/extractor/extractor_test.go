package extractor

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a single-page PDF with a Helvetica font. An empty
// content string leaves the page without a content stream.
func buildPDF(t *testing.T, content string) []byte {
	t.Helper()

	page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >>"
	if content != "" {
		page += " /Contents 5 0 R"
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		page + " >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	if content != "" {
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	data := buildPDF(t, "BT /F1 12 Tf 72 720 Td (Invoice Total:   42.00) Tj ET\n"+
		"BT /F1 12 Tf 72 700 Td (  Due Date: 2024-01-31) Tj ET")

	text, err := ExtractPDF(data)
	require.NoError(t, err)
	assert.Equal(t, "Invoice Total:   42.00\nDue Date: 2024-01-31", text)
}

func TestExtractPDF_NoTextLayer(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"page without contents", ""},
		{"empty text object", "BT /F1 12 Tf 72 720 Td ( ) Tj ET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ExtractPDF(buildPDF(t, tt.content))
			assert.ErrorIs(t, err, ErrNoText)
			assert.Empty(t, text)
		})
	}
}

func TestExtractPDF_RejectsGarbage(t *testing.T) {
	text, err := ExtractPDF([]byte("this is not a pdf"))
	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"blank lines dropped", "a\n\n  \nb", "a\nb"},
		{"crlf normalised", "Total:\r\n 10", "Total:\n10"},
		{"nul removed", "In\x00voice", "Invoice"},
		{"ligature folded", "ﬁle", "file"},
		{"full-width digits folded", "１２", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}

func TestDecoderFunc(t *testing.T) {
	var d PDFDecoder = DecoderFunc(func(data []byte) (string, error) {
		return string(data), nil
	})

	text, err := d.Decode([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}
