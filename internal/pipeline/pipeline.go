// Package pipeline orchestrates PDF text extraction, prompt construction,
// generation, and response parsing into one metadata run.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/paperdesk/papermeta/internal/llm"
	"github.com/paperdesk/papermeta/internal/metadata"
	"github.com/paperdesk/papermeta/internal/prompt"
	"github.com/paperdesk/papermeta/internal/resilience"
)

// textExtractor is the slice of pdftext.Extractor the pipeline needs.
type textExtractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Pipeline runs the full extraction flow for one document.
type Pipeline struct {
	extractor textExtractor
	builder   *prompt.Builder
	gen       llm.Generator
	retry     resilience.RetryConfig
}

// New assembles a Pipeline from its stages.
func New(extractor textExtractor, builder *prompt.Builder, gen llm.Generator) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		builder:   builder,
		gen:       gen,
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     30 * time.Second,
			OnRetry:        resilience.RetryLogger("llm", "generate"),
		},
	}
}

// Run extracts metadata from the PDF at pdfPath. It always returns a
// Record: when a stage fails, the record is degraded rather than the run
// aborted, with the failure described in the summary field and the DOI
// still recovered from whatever text was read.
func (p *Pipeline) Run(ctx context.Context, pdfPath string) metadata.Record {
	log := zap.L().With(zap.String("pdf", pdfPath))

	text, err := p.extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		return degraded("", "Metadata extraction failed: the document text could not be read.")
	}
	if text == "" {
		log.Warn("document produced no text")
		return degraded("", "Metadata extraction failed: the document contains no extractable text.")
	}
	log.Debug("text extracted", zap.Int("chars", len(text)))

	raw, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.gen.Generate(ctx, p.builder.Metadata(text))
	})
	if err != nil {
		log.Warn("generation failed", zap.Error(err))
		return degraded(text, "Metadata extraction failed: the language model could not be reached.")
	}

	rec, err := metadata.ParseModelOutput(raw, text)
	if err != nil {
		if !eris.Is(err, metadata.ErrNoStructuredResult) {
			log.Warn("parse failed", zap.Error(err))
		} else {
			log.Warn("model output had no structured metadata")
		}
		return degraded(text, "Metadata extraction failed: the model response contained no structured metadata.")
	}

	log.Info("metadata extracted",
		zap.String("doi", rec.DOI),
		zap.String("title", rec.Title),
		zap.Int("authors", len(rec.Authors)))
	return rec
}

// degraded builds the fallback record for a failed run. The DOI is still
// recovered from the document text when any was read.
func degraded(docText, cause string) metadata.Record {
	return metadata.Record{
		DOI:     metadata.ExtractDOI(docText),
		Authors: []string{},
		Summary: cause,
	}
}
