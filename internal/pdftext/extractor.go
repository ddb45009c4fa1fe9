// Package pdftext recovers the plain-text content of a PDF, combining
// text-layer extraction with OCR fallback for scanned pages.
package pdftext

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/paperdesk/papermeta/internal/ocr"
)

const defaultPageConcurrency = 4

// Extractor produces the best-effort text of a whole PDF. Pages with an
// embedded text layer are read directly; image-only pages go through the
// page OCR engine; when no page yields any text at all, the whole-document
// OCR engine is tried as a last resort.
type Extractor struct {
	layer           textLayer
	pageOCR         ocr.PageEngine
	docOCR          ocr.DocumentEngine
	pageConcurrency int
}

// New creates an Extractor. Either OCR engine may be nil, which disables the
// corresponding fallback.
func New(pageOCR ocr.PageEngine, docOCR ocr.DocumentEngine, pageConcurrency int) *Extractor {
	if pageConcurrency <= 0 {
		pageConcurrency = defaultPageConcurrency
	}
	return &Extractor{
		layer:           pdfLayer{},
		pageOCR:         pageOCR,
		docOCR:          docOCR,
		pageConcurrency: pageConcurrency,
	}
}

// ExtractText returns the text of all pages joined with newlines, in page
// order. An empty result with a nil error means the document genuinely
// yielded no text; it is not a failure.
func (e *Extractor) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	pages, err := e.layer.pageTexts(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "pdftext: open %s", pdfPath)
	}

	// Collect pages whose text layer came back empty; those are treated as
	// image-only and sent through OCR.
	var ocrPages []int
	for i, text := range pages {
		pages[i] = strings.TrimSpace(text)
		if pages[i] == "" {
			ocrPages = append(ocrPages, i+1)
		}
	}

	if e.pageOCR != nil && len(ocrPages) > 0 {
		if err := e.ocrPages(ctx, pdfPath, pages, ocrPages); err != nil {
			return "", err
		}
	}

	text := joinPages(pages)

	// Whole-document rasterized OCR only when the text layer was entirely
	// absent; a partially extracted document never re-runs from scratch.
	if text == "" && e.docOCR != nil {
		docText, err := e.docOCR.DocumentText(ctx, pdfPath)
		if err != nil {
			if ctx.Err() != nil {
				return "", eris.Wrap(err, "pdftext: document ocr")
			}
			zap.L().Warn("pdftext: whole-document ocr failed",
				zap.String("pdf", pdfPath),
				zap.Error(err),
			)
			return "", nil
		}
		text = strings.TrimSpace(docText)
	}

	return norm.NFC.String(text), nil
}

// ocrPages runs the page OCR engine over the given page numbers (1-based),
// writing results into pages by index so the original page order survives
// the parallel execution. A single page failure contributes empty text and
// is never fatal.
func (e *Extractor) ocrPages(ctx context.Context, pdfPath string, pages []string, ocrPages []int) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.pageConcurrency)

	for _, pageNo := range ocrPages {
		g.Go(func() error {
			text, err := e.pageOCR.PageText(gCtx, pdfPath, pageNo)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				zap.L().Warn("pdftext: page ocr failed, page contributes no text",
					zap.String("pdf", pdfPath),
					zap.Int("page", pageNo),
					zap.Error(err),
				)
				return nil
			}
			pages[pageNo-1] = strings.TrimSpace(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "pdftext: page ocr")
	}
	return nil
}

// joinPages concatenates non-empty page texts with newline separators.
func joinPages(pages []string) string {
	var parts []string
	for _, p := range pages {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
