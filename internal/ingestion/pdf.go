package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ErrUnsupportedFile reports a file extension the loader cannot handle.
var ErrUnsupportedFile = errors.New("ingestion: unsupported file type")

// ExtractText returns the plain text of a source file, dispatching on
// the extension.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ".pdf":
		return ExtractTextFromPDF(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}
}

// ExtractTextFromPDF pulls the text layer of a PDF. When the text layer
// is empty (scanned documents) it falls back to the pdftotext CLI if
// installed.
func ExtractTextFromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		if out, err := exec.Command("pdftotext", "-layout", path, "-").Output(); err == nil {
			return strings.TrimSpace(string(out)), nil
		}
	}
	return text, nil
}

// ExtractTextFromPDFBytes handles in-memory uploads (multipart bodies).
func ExtractTextFromPDFBytes(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
