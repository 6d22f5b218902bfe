package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/engine"
	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/parser"
	"github.com/pable/go-cs-tactics/internal/report"
	"github.com/pable/go-cs-tactics/internal/storage"
)

var (
	parseInterval int
	parseForce    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <demo.dem>",
	Short: "Parse a CS2 demo, analyse every round and store the reports",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().IntVar(&parseInterval, "interval", parser.DefaultInterval, "ticks between position samples")
	parseCmd.Flags().BoolVar(&parseForce, "force", false, "re-analyse a demo that is already stored")
}

func openStorage() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	demoPath := args[0]
	log := newLogger()

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "Parsing %s...\n", demoPath)
	update, done := progressBar()
	parsed, err := parser.ParseDemo(demoPath, parser.Options{Interval: parseInterval, Log: log, Progress: update})
	done()
	if err != nil {
		return fmt.Errorf("parse demo: %w", err)
	}

	if !parseForce {
		exists, err := db.DemoExists(parsed.Hash)
		if err != nil {
			return fmt.Errorf("check demo: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "Demo %s already stored, showing cached results.\n", parsed.Hash[:12])
			return showByHash(db, parsed.Hash, 0)
		}
	}

	summary := model.DemoSummary{
		Hash:     parsed.Hash,
		Source:   "demo",
		MapName:  parsed.MapName,
		TickRate: parsed.TickRate,
	}
	return analyzeAndStore(cmd.Context(), db, summary, parsed.Samples)
}

// progressBar renders demo parsing progress on stderr. done must be called
// once parsing returns.
func progressBar() (update func(float64), done func()) {
	tmpl := `{{ green "Progress:" }} {{ bar . "[" "#" "#" "." "]"}} {{percent .}}`
	bar := pb.ProgressBarTemplate(tmpl).Start64(100)
	return func(f float64) { bar.SetCurrent(int64(f * 100)) }, func() { bar.Finish() }
}

// analyzeAndStore splits samples into rounds, analyses them, stores the demo
// with its reports and prints the per-round overview.
func analyzeAndStore(ctx context.Context, db *storage.DB, summary model.DemoSummary, samples []model.TelemetrySample) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(summary.TickRate)
	if err != nil {
		return err
	}
	summary.TickRate = cfg.TickRate

	rounds := engine.SplitRounds(samples)
	if len(rounds) == 0 {
		return fmt.Errorf("no samples to analyse: %w", model.ErrInvalidInput)
	}
	fmt.Fprintf(os.Stdout, "Analysing %d rounds (%d samples)...\n", len(rounds), len(samples))
	reports, err := engine.AnalyzeRounds(ctx, rounds, cfg, workers, newLogger())
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}

	summary.Rounds = len(reports)
	summary.ImportedAt = time.Now().UTC().Format(time.RFC3339)
	if err := db.InsertDemo(summary); err != nil {
		return fmt.Errorf("insert demo: %w", err)
	}
	if err := db.InsertRoundReports(summary.Hash, reports); err != nil {
		return fmt.Errorf("insert round reports: %w", err)
	}

	report.PrintDemoSummary(os.Stdout, summary)
	report.PrintRoundsTable(os.Stdout, reports)
	return nil
}

// showByHash prints a stored demo. round 0 prints the per-round overview,
// any other value prints that round in full.
func showByHash(db *storage.DB, hash string, round int) error {
	demo, err := db.GetDemoByPrefix(hash)
	if err != nil {
		return fmt.Errorf("query demo: %w", err)
	}
	if demo == nil {
		return fmt.Errorf("demo not found: %s", hash)
	}
	reports, err := db.GetRoundReports(demo.Hash, round)
	if err != nil {
		return fmt.Errorf("get round reports: %w", err)
	}
	report.PrintDemoSummary(os.Stdout, *demo)
	if round == 0 {
		report.PrintRoundsTable(os.Stdout, reports)
		return nil
	}
	if len(reports) == 0 {
		fmt.Fprintf(os.Stderr, "No round %d stored for demo %s\n", round, demo.Hash[:12])
		return nil
	}
	report.PrintRoundReport(os.Stdout, reports[0], showPlayerID)
	return nil
}
