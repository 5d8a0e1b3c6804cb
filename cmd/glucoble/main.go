package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree; each call returns fresh flag state
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "glucoble",
		Short: "Bluetooth glucose meter decoder",
		Long: `Decodes Bluetooth Low Energy Glucose Profile traffic:

- Glucose Measurement, Measurement Context and Feature values
- Record Access Control Point requests and responses
- Device Information strings, System ID, PnP ID and regulatory data

Values can be decoded one at a time, replayed from a capture file, or streamed
live from a meter. Output is plain text, JSON or YAML, optionally filtered
through a Lua on_record(rec) hook.`,
		Version: formatVersion(version),
	}

	// main() prints errors itself
	root.SilenceErrors = true
	root.SetVersionTemplate(fmt.Sprintf("glucoble {{.Version}} (commit %s, built %s)\n", commit, date))

	root.AddCommand(newDecodeCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newRACPCmd())
	root.AddCommand(newLookupCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newMonitorCmd())

	// Global flags
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("verbose", false, "Shorthand for --log-level debug")
	root.PersistentFlags().StringP("output", "o", "", "Output format: text, json or yaml")
	root.PersistentFlags().String("color", "", "Color mode: auto, always or never")
	root.PersistentFlags().String("script", "", "Lua script defining on_record(rec) to filter or reformat records")

	// Add -v as a short flag for --version
	root.Flags().BoolP("version", "v", false, "Show version information")

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
