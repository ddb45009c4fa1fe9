package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var extractOut string

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract metadata from a single PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pdfPath := args[0]
		if _, err := os.Stat(pdfPath); err != nil {
			return eris.Wrapf(err, "stat %s", pdfPath)
		}

		p, err := initPipeline(cfg)
		if err != nil {
			return err
		}

		rec := p.Run(ctx, pdfPath)

		out := os.Stdout
		if extractOut != "" {
			f, err := os.Create(extractOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", extractOut)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOut, "out", "", "write JSON to this file instead of stdout")
	rootCmd.AddCommand(extractCmd)
}
