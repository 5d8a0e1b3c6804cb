package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/srg/glucoble/pkg/config"
	"github.com/srg/glucoble/scanner"
)

func newScanCmd() *cobra.Command {
	var (
		duration   time.Duration
		all        bool
		duplicates bool
		allow      []string
		block      []string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find nearby glucose meters",
		Long: fmt.Sprintf(`Listens for BLE advertisements and lists devices advertising the Glucose
service (0x1808), strongest signal first. The address column is what
"glucoble monitor" expects.

Examples:
  glucoble scan
  glucoble scan --duration 30s -o json
  glucoble scan --all --block %s

%s`, exampleDeviceAddress, deviceAddressNote),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := configureLogger(cmd)
			if err != nil {
				return err
			}

			opts := scanner.DefaultOptions()
			opts.Duration = duration
			opts.DuplicateFilter = !duplicates
			opts.AllowList = allow
			opts.BlockList = block
			if all {
				opts.ServiceUUIDs = nil
			}

			// All arguments validated - don't show usage on runtime errors
			cmd.SilenceUsage = true

			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			fmt.Fprintf(cmd.ErrOrStderr(), "Scanning for %s...\n", duration)
			meters, err := scanner.NewScanner(logger).Scan(ctx, opts, nil)
			if err != nil {
				return err
			}
			return printMeters(cmd.OutOrStdout(), cfg.OutputFormat, meters)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "Scan duration")
	cmd.Flags().BoolVar(&all, "all", false, "List every advertising device, not only glucose meters")
	cmd.Flags().BoolVar(&duplicates, "duplicates", false, "Process repeated advertisements to track signal strength")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "Only include these addresses")
	cmd.Flags().StringSliceVar(&block, "block", nil, "Exclude these addresses")
	return cmd
}

func printMeters(w io.Writer, format string, meters []scanner.Meter) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		for _, m := range meters {
			if err := enc.Encode(m); err != nil {
				return err
			}
		}
		return nil
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, m := range meters {
			node, err := toYAMLNode(m)
			if err != nil {
				return err
			}
			if err := enc.Encode(node); err != nil {
				return err
			}
		}
		return enc.Close()
	}

	if len(meters) == 0 {
		_, err := fmt.Fprintln(w, "No glucose meters found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tRSSI\tSERVICES")
	for _, m := range meters {
		name := m.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Address, name, m.RSSI, strings.Join(m.Services, ","))
	}
	return tw.Flush()
}
