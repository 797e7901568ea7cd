package docextract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onePagePDF builds a single-page PDF showing text in Helvetica, with a
// correct xref table.
func onePagePDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
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

func TestExtractPDFText(t *testing.T) {
	text, err := extractPDFText(onePagePDF("Hello JD"))
	require.NoError(t, err)
	assert.Contains(t, text, "Hello JD")
}

func TestExtractPDFText_MalformedInputReturnsError(t *testing.T) {
	valid := onePagePDF("Truncated")
	cases := map[string][]byte{
		"garbage":        []byte("%PDF-1.4\n\x00\x01\x02 not really a pdf"),
		"truncated":      valid[:len(valid)/2],
		"header only":    []byte("%PDF-1.7\n"),
		"empty":          {},
		"stream cut off": valid[:bytes.Index(valid, []byte("endstream"))],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var (
				text string
				err  error
			)
			require.NotPanics(t, func() { text, err = extractPDFText(data) })
			assert.Error(t, err)
			assert.Empty(t, text)
		})
	}
}

func TestExtractText_Dispatch(t *testing.T) {
	text, err := extractText(".pdf", onePagePDF("Dispatch"))
	require.NoError(t, err)
	assert.Contains(t, text, "Dispatch")

	text, err = extractText(".md", []byte("# Title"))
	require.NoError(t, err)
	assert.Equal(t, "# Title", text)

	_, err = extractText(".xlsx", []byte("x"))
	assert.EqualError(t, err, "unsupported file type: .xlsx")
}

func TestLocalExtract_PDF(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jd.pdf"), onePagePDF("Staff Engineer"), 0o644))

	valid := onePagePDF("Staff Engineer")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cut.pdf"), valid[:len(valid)-40], 0o644))

	l := NewLocal(dir, discardLogger())
	ctx := context.Background()
	assert.Contains(t, l.Extract(ctx, "jd.pdf", "dev", KindJobDescription), "Staff Engineer")
	assert.NotPanics(t, func() {
		assert.Equal(t, "", l.Extract(ctx, "cut.pdf", "dev", KindJobDescription))
	})
}
