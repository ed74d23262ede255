// Command bacnode-log inspects protocol log files written by bacnode.
//
// A log file is a stream of flat CBOR events, one per protocol exchange:
// confirmed requests and their outcomes, broadcasts, COV notifications,
// lifecycle transitions, and errors. Events carry a direction (in/out),
// a category, and where applicable the remote device instance and object.
// Files are produced by running bacnode with -protocol-log.
//
// Usage:
//
//	bacnode-log <command> [flags] <file.blog>
//
// Commands:
//
//	view     Print events in human-readable form
//	export   Convert events to JSONL or CSV
//	filter   Copy a subset of events into a new log file
//	stats    Summarize event counts and services
//
// Examples:
//
//	# Print every event
//	bacnode-log view node.blog
//
//	# Only outgoing confirmed requests
//	bacnode-log view --direction out --category request node.blog
//
//	# Everything that touched device 1001, as a new log
//	bacnode-log filter --device-id 1001 -o device1001.blog node.blog
//
//	# Event counts per category and service
//	bacnode-log stats node.blog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bacnode-protocol/bacnode-go/cmd/bacnode-log/commands"
)

const usage = `bacnode-log - inspect bacnode protocol logs

Usage:
  bacnode-log <command> [flags] <file.blog>

Commands:
  view     Print events in human-readable form
  export   Convert events to JSONL or CSV
  filter   Copy a subset of events into a new log file
  stats    Summarize event counts and services

Run "bacnode-log <command> -help" for the flags of a command.
`

const categoryHelp = "request, outcome, broadcast, notification, lifecycle, error"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	args := os.Args[2:]

	switch os.Args[1] {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// subcommand builds a flag set whose -help output follows the shared layout.
func subcommand(name, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "bacnode-log %s - %s\n\nUsage:\n  bacnode-log %s [flags] <file.blog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses flags and returns the log file path, exiting on misuse.
func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := subcommand("view", "print events in human-readable form")
	direction := fs.String("direction", "", "Only events with this direction (in, out)")
	category := fs.String("category", "", "Only events with this category ("+categoryHelp+")")
	deviceID := fs.Uint("device-id", 0, "Only events for this remote device instance")

	path := parseArgs(fs, args)

	var filter commands.ViewFilter

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fail(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	filter.DeviceID = uint32(*deviceID)

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := subcommand("export", "convert events to JSONL or CSV")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := parseArgs(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := subcommand("filter", "copy a subset of events into a new log file")
	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session-id", "", "Only events from this session")
	deviceID := fs.Uint("device-id", 0, "Only events for this remote device instance")
	timeStart := fs.String("time-start", "", "Only events at or after this time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Only events at or before this time (RFC3339)")
	direction := fs.String("direction", "", "Only events with this direction (in, out)")
	category := fs.String("category", "", "Only events with this category ("+categoryHelp+")")

	path := parseArgs(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		SessionID: *sessionID,
		DeviceID:  uint32(*deviceID),
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Direction: *direction,
		Category:  *category,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := subcommand("stats", "summarize event counts and services")

	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
