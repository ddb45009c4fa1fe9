// Package ocr recovers text from scanned PDF pages.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/paperdesk/papermeta/internal/config"
)

// PageEngine performs OCR on a single page of a PDF.
type PageEngine interface {
	PageText(ctx context.Context, pdfPath string, page int) (string, error)
}

// DocumentEngine performs OCR across a whole PDF.
type DocumentEngine interface {
	DocumentText(ctx context.Context, pdfPath string) (string, error)
}

// NewEngines creates the OCR engines for cfg. The page engine handles
// individual image-only pages; the document engine is the whole-document
// fallback used when no page yields any text. With the "mistral" provider
// there is no page engine (the API operates on whole documents only).
func NewEngines(cfg config.OCRConfig) (PageEngine, DocumentEngine, error) {
	switch cfg.Provider {
	case "tesseract", "local", "":
		t := NewTesseract(cfg.PdfToPpmPath, cfg.TesseractPath, cfg.DPI)
		return t, t, nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return nil, NewMistral(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
