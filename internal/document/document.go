// Package document turns an uploaded resume into plain text.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNoFile            = errors.New("no file uploaded")
	ErrEmptyFilename     = errors.New("no file selected")
	ErrUnsupportedFormat = errors.New("unsupported file format, please upload a PDF or TXT file")
	ErrExtraction        = errors.New("failed to extract text from document")
)

// Extractor converts a named payload into text.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
}

// Default is the Extractor backed by Extract.
var Default Extractor = extractorFunc(Extract)

type extractorFunc func(string, []byte) (string, error)

func (f extractorFunc) Extract(filename string, data []byte) (string, error) {
	return f(filename, data)
}

// Extract returns the text of a .pdf or .txt upload. The extension is matched
// case-insensitively. A nil payload means no file was sent; an empty .txt is
// a valid upload with no text.
func Extract(filename string, data []byte) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrEmptyFilename
	}
	if data == nil {
		return "", ErrNoFile
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		if len(data) == 0 {
			return "", fmt.Errorf("%w: %s is empty", ErrExtraction, filename)
		}
		return extractPDF(data)
	case ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrExtraction, filename)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func extractPDF(data []byte) (text string, err error) {
	// The reader panics on some truncated documents.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	return strings.TrimSpace(buf.String()), nil
}
