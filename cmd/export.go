package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/parser"
	"github.com/pable/go-cs-tactics/internal/telemetry"
)

var exportInterval int

// exportCmd writes the sampled telemetry of a demo as CSV, readable back
// through import.
var exportCmd = &cobra.Command{
	Use:   "export <demo.dem> <out.csv>",
	Short: "Sample a CS2 demo into telemetry CSV",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().IntVar(&exportInterval, "interval", parser.DefaultInterval, "ticks between position samples")
}

func runExport(cmd *cobra.Command, args []string) error {
	demoPath, outPath := args[0], args[1]

	fmt.Fprintf(os.Stdout, "Parsing %s...\n", demoPath)
	update, done := progressBar()
	parsed, err := parser.ParseDemo(demoPath, parser.Options{Interval: exportInterval, Log: newLogger(), Progress: update})
	done()
	if err != nil {
		return fmt.Errorf("parse demo: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	w := bufio.NewWriter(f)
	if err := telemetry.Write(w, parsed.Samples); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}

	fmt.Fprintf(os.Stdout, "Wrote %d samples over %d rounds (%s, %.0f tick) to %s\n",
		len(parsed.Samples), parsed.Rounds, parsed.MapName, parsed.TickRate, outPath)
	return nil
}
