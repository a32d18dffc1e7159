package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fitResume/internal/config"
	"fitResume/internal/density"
	"fitResume/internal/export"
	"fitResume/internal/fit"
	"fitResume/internal/typeset"
)

var exportCmd = &cobra.Command{
	Use:   "export <document.json>",
	Short: "Render a resume document to PDF",
	Long:  "Renders the document with the given preset. Without --preset the density search picks the preset first.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var (
	exportOut      string
	exportPreset   string
	exportRenderer string
	exportTimeout  time.Duration
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Path to output PDF file (required)")
	exportCmd.Flags().StringVar(&exportPreset, "preset", "", "Preset id, empty to run the density search")
	exportCmd.Flags().StringVar(&exportRenderer, "renderer", export.RendererCanvas, "Renderer: canvas or browser")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", time.Minute, "Render timeout")

	if err := exportCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	page := config.DefaultFit()
	ts, err := typeset.New(page.PageWidthPx, page.PageHeightPx)
	if err != nil {
		return fmt.Errorf("init typesetter: %w", err)
	}

	ladder := density.Standard
	preset := export.ResolvePreset(ladder, exportPreset)
	if exportPreset == "" {
		prober, err := fit.NewProber(page.EpsilonPx)
		if err != nil {
			return err
		}
		_, state, err := search(ts, prober, ladder, doc)
		if err != nil {
			return err
		}
		preset = ladder.At(state.Current)
	} else if _, err := ladder.IndexOf(exportPreset); err != nil {
		return fmt.Errorf("unknown preset %q", exportPreset)
	}

	renderer, err := export.NewRenderer(exportRenderer, ts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), exportTimeout)
	defer cancel()
	pdf, err := renderer.Render(ctx, doc, preset)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.WriteFile(exportOut, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", exportOut, preset.ID, len(pdf))
	return nil
}
