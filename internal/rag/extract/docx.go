package extract

import (
	"fmt"
	"os"

	"github.com/lu4p/cat"
)

// extractDOCX shells the bytes out to a temp file because cat dispatches on
// the file extension. Word processors don't persist page breaks in the XML,
// so DOCX text carries no page markers and every chunk lands on page 1.
func extractDOCX(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "extract-*.docx")
	if err != nil {
		return "", fmt.Errorf("%w: staging docx: %v", ErrExtractionFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: staging docx: %v", ErrExtractionFailed, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: staging docx: %v", ErrExtractionFailed, err)
	}

	text, err := cat.File(tmp.Name())
	if err != nil {
		logger.Error("Error extracting content from doc", "error", err)
		return "", fmt.Errorf("%w: docx: %v", ErrExtractionFailed, err)
	}
	return text, nil
}
