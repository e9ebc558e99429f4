// Package extract turns raw document bytes into an ordered sequence of
// per-page texts.
package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extractor extracts page texts from raw document bytes. Page order matches
// document order.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]string, error)
}

// PDFExtractor extracts plain text from PDF documents. The input is
// validated with pdfcpu before text extraction; malformed input fails with
// a descriptive error rather than a parser panic.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot extract text from empty input")
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("input is not a valid PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := reader.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page with no extractable text is still a page.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
