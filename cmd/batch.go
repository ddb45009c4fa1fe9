package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paperdesk/papermeta/internal/llm"
	"github.com/paperdesk/papermeta/internal/metadata"
)

var batchOutDir string

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract metadata from every PDF in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pdfs, err := findPDFs(args[0])
		if err != nil {
			return err
		}
		if len(pdfs) == 0 {
			return eris.Errorf("no PDF files in %s", args[0])
		}

		outDir := batchOutDir
		if outDir == "" {
			outDir = args[0]
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return eris.Wrapf(err, "create output dir %s", outDir)
		}

		gen, err := llm.NewGenerator(cfg.LLM)
		if err != nil {
			return err
		}
		p, err := initPipelineWith(cfg, llm.NewRateLimited(gen, cfg.Batch.RequestsPerSec))
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		log := zap.L().With(zap.String("run_id", runID))
		log.Info("batch started", zap.Int("files", len(pdfs)), zap.String("out_dir", outDir))

		var done, degradedCount atomic.Int64

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrent)
		for _, pdf := range pdfs {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				rec := p.Run(ctx, pdf)
				if isDegraded(rec) {
					degradedCount.Add(1)
				}

				if err := writeRecord(outDir, pdf, rec); err != nil {
					return err
				}

				log.Info("file processed",
					zap.String("pdf", pdf),
					zap.Int64("done", done.Add(1)),
					zap.Int("total", len(pdfs)))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch run")
		}

		log.Info("batch complete",
			zap.Int("files", len(pdfs)),
			zap.Int64("degraded", degradedCount.Load()))
		return nil
	},
}

// findPDFs lists *.pdf files directly under dir, sorted by name.
func findPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dir, e.Name()))
		}
	}
	return pdfs, nil
}

// writeRecord writes the record next to the source file name with a .json
// extension, under outDir.
func writeRecord(outDir, pdfPath string, rec metadata.Record) error {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	outPath := filepath.Join(outDir, base+".json")

	f, err := os.Create(outPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", outPath)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// isDegraded reports whether a record came out of the failure path.
func isDegraded(rec metadata.Record) bool {
	return rec.Title == "" && len(rec.Authors) == 0 &&
		strings.HasPrefix(rec.Summary, "Metadata extraction failed")
}

func init() {
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for JSON outputs (default: alongside the PDFs)")
	rootCmd.AddCommand(batchCmd)
}
