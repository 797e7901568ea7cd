package docextract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Local extracts text from files staged in a local directory. It stands in for
// the extraction service when none is configured.
type Local struct {
	dir    string
	logger *slog.Logger
}

func NewLocal(dir string, logger *slog.Logger) *Local {
	return &Local{dir: dir, logger: logger}
}

func (l *Local) Extract(ctx context.Context, fileRef, env, kind string) string {
	// fileRef is a bare stored name; refuse anything that walks out of dir.
	name := filepath.Base(fileRef)
	if name != fileRef || name == "." || name == ".." {
		l.logger.WarnContext(ctx, "rejected file reference", "file", fileRef)
		return ""
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		l.logger.ErrorContext(ctx, "read staged file", "file", fileRef, "error", err)
		return ""
	}

	text, err := extractText(strings.ToLower(filepath.Ext(name)), data)
	if err != nil {
		l.logger.ErrorContext(ctx, "local extraction failed", "file", fileRef, "error", err)
		return ""
	}

	l.logger.InfoContext(ctx, "extracted document text locally", "file", fileRef, "chars", len(text))
	return strings.TrimSpace(text)
}

func extractText(ext string, data []byte) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDFText(data)
	case ".docx":
		return extractDocxText(data)
	case ".txt", ".md", "":
		return decodeLossy(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

// extractPDFText recovers from reader panics, which the pdf package raises on
// malformed xref tables and truncated streams.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return docxPlainText(doc.Editable().GetContent()), nil
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// docxPlainText turns document.xml content into text, one paragraph per line.
func docxPlainText(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	return html.UnescapeString(xmlTag.ReplaceAllString(content, ""))
}
