package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fitResume/internal/config"
	"fitResume/internal/density"
	"fitResume/internal/fit"
	"fitResume/internal/typeset"
)

var fitCmd = &cobra.Command{
	Use:   "fit <document.json>",
	Short: "Run the density search and print every probe",
	Args:  cobra.ExactArgs(1),
	RunE:  runFit,
}

var (
	fitEpsilon float64
	fitJSON    bool
)

func init() {
	fitCmd.Flags().Float64Var(&fitEpsilon, "epsilon", fit.DefaultEpsilonPx, "Overflow tolerance in pixels")
	fitCmd.Flags().BoolVar(&fitJSON, "json", false, "Print probes as JSON")

	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	prober, err := fit.NewProber(fitEpsilon)
	if err != nil {
		return err
	}
	page := config.DefaultFit()
	ts, err := typeset.New(page.PageWidthPx, page.PageHeightPx)
	if err != nil {
		return fmt.Errorf("init typesetter: %w", err)
	}

	probes, state, err := search(ts, prober, density.Standard, doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if fitJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"probes": probes, "state": state})
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCONTENT\tPAGE\tOVERFLOW\tSTATUS")
	for _, p := range probes {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%t\t%s\n", p.PresetID, p.ContentHeight, p.PageHeight, p.Overflowing, p.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "selected %s (floor %s)\n",
		density.Standard.At(state.Current).ID,
		density.Standard.At(state.MinValid).ID,
	)
	return nil
}
