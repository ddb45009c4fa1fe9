package pdftext

import (
	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// textLayer reads the embedded text layer of a PDF, one string per page.
type textLayer interface {
	pageTexts(pdfPath string) ([]string, error)
}

// pdfLayer is the ledongthuc/pdf backed text layer.
type pdfLayer struct{}

func (pdfLayer) pageTexts(pdfPath string) (pages []string, err error) {
	// The parser panics on some malformed cross-reference tables; a corrupt
	// page must degrade to OCR, not crash the pipeline.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, eris.Errorf("pdftext: pdf parser panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, eris.Wrap(err, "pdftext: open pdf")
	}
	defer func() { _ = f.Close() }()

	numPages := r.NumPage()
	pages = make([]string, numPages)
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= numPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f2 := p.Font(name)
				fonts[name] = &f2
			}
		}

		text, pageErr := pageText(p, fonts)
		if pageErr != nil {
			zap.L().Debug("pdftext: text layer unreadable for page",
				zap.String("pdf", pdfPath),
				zap.Int("page", i),
				zap.Error(pageErr),
			)
			continue
		}
		pages[i-1] = text
	}

	return pages, nil
}

// pageText reads one page's text layer, containing parser panics to the page.
func pageText(p pdf.Page, fonts map[string]*pdf.Font) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", eris.Errorf("pdftext: page content panic: %v", r)
		}
	}()
	return p.GetPlainText(fonts)
}
