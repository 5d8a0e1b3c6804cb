package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-ble/ble"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/srg/glucoble/inspector"
	"github.com/srg/glucoble/pkg/config"
)

func newInspectCmd() *cobra.Command {
	var connectTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "inspect <device-address>",
		Short: "Show a device's GATT profile with decoded values",
		Long: fmt.Sprintf(`Connects to a device, lists its services and characteristics and decodes
every readable characteristic glucoble understands, such as Glucose Feature
and the Device Information strings.

Examples:
  glucoble inspect %s
  glucoble inspect %s -o json

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]

			cfg, logger, err := configureLogger(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				cfg.ConnectTimeout = connectTimeout
			}

			// All arguments validated - don't show usage on runtime errors
			cmd.SilenceUsage = true

			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			progress := func(phase string) {
				logger.WithField("address", address).Debug(phase)
			}
			report, err := inspector.InspectDevice(ctx, address, &inspector.Options{ConnectTimeout: cfg.ConnectTimeout}, logger, progress,
				func(client inspector.Client, profile *ble.Profile) (inspector.Report, error) {
					return inspector.Describe(client, address, profile, logger), nil
				})
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), cfg.OutputFormat, report)
		},
	}

	cmd.Flags().DurationVar(&connectTimeout, "timeout", 30*time.Second, "Connection timeout")
	return cmd
}

func printReport(w io.Writer, format string, report inspector.Report) error {
	switch format {
	case config.FormatJSON:
		return json.NewEncoder(w).Encode(report)
	case config.FormatYAML:
		node, err := toYAMLNode(report)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Device: %s\n", report.Address)
	for _, svc := range report.Services {
		fmt.Fprintf(w, "Service %s %s\n", svc.UUID, svc.Name)
		for _, c := range svc.Characteristics {
			fmt.Fprintf(w, "  %s %s [%s]\n", c.UUID, c.Name, c.Properties)
			switch {
			case c.ReadError != "":
				fmt.Fprintf(w, "    read failed: %s\n", c.ReadError)
			case c.Value != nil:
				fmt.Fprintf(w, "    %s\n", c.Value.String())
			}
		}
	}
	return nil
}
