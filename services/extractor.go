package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docurag-worker/internal/logger"
	"docurag-worker/models"
)

// Extractor converts raw document bytes into ordered pages of text.
// The storage URL's extension selects the format: .pdf goes through the
// PDF parser, everything else is treated as plain text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractPages(content []byte, storageURL string) ([]models.Page, error) {
	if strings.HasSuffix(strings.ToLower(storageURL), ".pdf") {
		return e.extractPDF(content)
	}
	return e.extractText(content)
}

// extractPDF extracts text per page. A page whose extraction fails is
// skipped with a warning; only total failure aborts the document.
func (e *Extractor) extractPDF(content []byte) (pages []models.Page, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: %v", ErrCorruptDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrPasswordProtected
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		text, pageErr := extractPage(reader, i)
		if pageErr != nil {
			logger.Warn("Failed to extract text from page", "page", i, "error", pageErr)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, models.Page{Text: text, PageNumber: i})
	}

	if len(pages) == 0 {
		return nil, ErrEmptyExtraction
	}
	return pages, nil
}

func extractPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page extraction panic: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is null", num)
	}

	fonts := make(map[string]*pdf.Font)
	return page.GetPlainText(fonts)
}

// extractText decodes the content as UTF-8, replacing undecodable byte
// sequences rather than failing, and yields a single page.
func (e *Extractor) extractText(content []byte) ([]models.Page, error) {
	text := strings.ToValidUTF8(string(content), "�")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyExtraction
	}
	return []models.Page{{Text: text, PageNumber: 1}}, nil
}
