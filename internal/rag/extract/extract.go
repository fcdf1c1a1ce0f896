package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MIME types accepted for ingestion. Dispatch is a closed switch so adding a
// format means extending this enumeration and the switch together.
const (
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExtractionFailed    = errors.New("extraction failed")
)

// Supported reports whether the declared MIME type can be extracted. Handlers
// use it to reject uploads before any bytes are staged.
func Supported(mimeType string) bool {
	switch normalizeMime(mimeType) {
	case MimePDF, MimeDOCX, MimeText, MimeMarkdown:
		return true
	}
	return false
}

// Extract converts raw file bytes into plain UTF-8 text. PDF output carries
// "--- Page N ---" markers so the chunker can tag passages with pages.
func Extract(data []byte, mimeType string) (string, error) {
	var text string
	var err error

	switch normalizeMime(mimeType) {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	case MimeText:
		text, err = extractPlainText(data)
	case MimeMarkdown:
		text, err = extractMarkdown(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}

	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text content in document", ErrExtractionFailed)
	}
	return text, nil
}

func normalizeMime(mimeType string) string {
	//strip parameters like "; charset=utf-8"
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8", ErrExtractionFailed)
	}
	return string(data), nil
}
