// Package main is the entry point for the cstactics CLI tool, which turns
// CS2 demo telemetry into per-round positional and tactical analytics.
package main

import "github.com/pable/go-cs-tactics/cmd"

func main() {
	cmd.Execute()
}
