package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/report"
	"github.com/pable/go-cs-tactics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cGreeting.Println("cstactics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cstactics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <hash-prefix> [<round>]")
				continue
			}
			round := 0
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					cError.Fprintf(os.Stderr, "invalid round %q\n", args[1])
					continue
				}
				round = n
			}
			shellShow(db, args[0], round)
		case "rounds":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: rounds <hash-prefix> <player-id>")
				continue
			}
			shellRounds(db, args[0], args[1])
		case "sql":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			shellSQL(db, strings.Join(args, " "))
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored demos"},
		{"show <hash-prefix>", "per-round overview of a demo"},
		{"show <hash-prefix> <round>", "one round in full"},
		{"rounds <hash-prefix> <player-id>", "per-round drill-down for one player"},
		{"sql <query>", "run a raw SQL query"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(db *storage.DB) {
	demos, err := db.ListDemos()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(demos) == 0 {
		cMuted.Println("No demos stored yet.")
		return
	}
	printDemoList(demos)
}

func shellShow(db *storage.DB, prefix string, round int) {
	demo, err := db.GetDemoByPrefix(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if demo == nil {
		cWarn.Fprintf(os.Stderr, "no demo found with prefix %q\n", prefix)
		return
	}
	if err := showByHash(db, demo.Hash, round); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func shellRounds(db *storage.DB, prefix, playerID string) {
	demo, err := db.GetDemoByPrefix(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if demo == nil {
		cWarn.Fprintf(os.Stderr, "no demo found with prefix %q\n", prefix)
		return
	}
	reports, err := db.GetRoundReports(demo.Hash, 0)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cHeader.Fprintf(os.Stdout, "--- %s ---\n", demo.Hash[:12])
	if report.PrintPlayerRounds(os.Stdout, reports, playerID) == 0 {
		cMuted.Printf("no rounds for player %s\n", playerID)
	}
}

func shellSQL(db *storage.DB, query string) {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	printQueryTable(cols, rows)
}
