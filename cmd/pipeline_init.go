package main

import (
	"github.com/rotisserie/eris"

	"github.com/paperdesk/papermeta/internal/config"
	"github.com/paperdesk/papermeta/internal/llm"
	"github.com/paperdesk/papermeta/internal/ocr"
	"github.com/paperdesk/papermeta/internal/pdftext"
	"github.com/paperdesk/papermeta/internal/pipeline"
	"github.com/paperdesk/papermeta/internal/prompt"
)

// initPipeline assembles the OCR engines, text extractor, prompt builder,
// and generator into a Pipeline per the loaded config.
func initPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	gen, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return initPipelineWith(cfg, gen)
}

// initPipelineWith is initPipeline with the generator supplied by the
// caller; batch runs pass a rate-limited one.
func initPipelineWith(cfg *config.Config, gen llm.Generator) (*pipeline.Pipeline, error) {
	pageOCR, docOCR, err := ocr.NewEngines(cfg.OCR)
	if err != nil {
		return nil, err
	}

	extractor := pdftext.New(pageOCR, docOCR, cfg.Extract.PageConcurrency)

	builder := prompt.NewBuilder(cfg.Prompt.MaxChars)
	if cfg.Prompt.TemplateFile != "" {
		builder, err = prompt.LoadBuilder(cfg.Prompt.TemplateFile, cfg.Prompt.MaxChars)
		if err != nil {
			return nil, eris.Wrap(err, "load prompt template")
		}
	}

	return pipeline.New(extractor, builder, gen), nil
}
