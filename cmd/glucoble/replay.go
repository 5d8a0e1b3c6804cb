package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/srg/glucoble/pkg/characteristic"
	"github.com/srg/glucoble/pkg/glucose"
	"github.com/srg/glucoble/pkg/session"
)

// Capture is a recorded sequence of characteristic values
type Capture struct {
	Device  string          `yaml:"device,omitempty"`
	Records []CaptureRecord `yaml:"records"`
}

// CaptureRecord is one value; Service defaults to the glucose service
type CaptureRecord struct {
	Service        string `yaml:"service,omitempty"`
	Characteristic string `yaml:"characteristic"`
	Data           string `yaml:"data"`
}

// readCapture parses a capture file; "-" reads stdin
func readCapture(path string, stdin io.Reader) (*Capture, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read capture %s: %w", path, err)
	}

	var c Capture
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse capture %s: %w", path, err)
	}
	return &c, nil
}

func newReplayCmd() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "replay <capture.yaml|->",
		Short: "Decode a recorded capture file",
		Long: `Decodes every value of a capture file in order, pairing measurements with
their context records and reporting sequence number gaps.

Capture format:
  device: Acme GL50
  records:
    - characteristic: 2a18
      data: 0B 0400 E607 07 1E 14 01 08 3900 2CB1 4A 00
    - service: 180a
      characteristic: 2a29
      data: 41 63 6D 65

Examples:
  glucoble replay testdata/capture.yaml
  glucoble replay - -o yaml < capture.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := configureLogger(cmd)
			if err != nil {
				return err
			}

			capture, err := readCapture(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			hook, err := openHook(cfg, logger)
			if err != nil {
				return err
			}
			if hook != nil {
				defer hook.Close()
			}

			printer := newPrinter(cmd.OutOrStdout(), cfg, hook)
			defer printer.Close()

			store := session.NewRecordStore()
			for i, rec := range capture.Records {
				service := rec.Service
				if service == "" {
					service = characteristic.GlucoseServiceUUID.String()
				}
				data, err := parseHex(rec.Data)
				if err != nil {
					return fmt.Errorf("record %d: %w", i+1, err)
				}
				r, err := characteristic.DecodeString(service, rec.Characteristic, data)
				if err != nil {
					return fmt.Errorf("record %d: %w", i+1, err)
				}

				switch v := r.Value.(type) {
				case glucose.Measurement:
					if _, gap := store.AddMeasurement(v); gap != nil {
						logger.WithField("missing", gap.String()).Warn("Sequence number gap")
					}
				case glucose.MeasurementContext:
					store.AddContext(v)
				}

				if err := printer.Print(r); err != nil {
					return err
				}
			}

			if summary {
				printSummary(cmd.ErrOrStderr(), capture.Device, store)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", true, "Print a record summary to stderr")
	return cmd
}

// printSummary reports paired records and gaps for a device
func printSummary(w io.Writer, device string, store *session.RecordStore) {
	if store.Len() == 0 {
		return
	}
	complete := store.Len() - len(store.Incomplete())
	if device != "" {
		fmt.Fprintf(w, "Device: %s\n", device)
	}
	fmt.Fprintf(w, "Records: %d (%d complete)\n", store.Len(), complete)

	if missing := store.Missing(); len(missing) > 0 {
		parts := make([]string, len(missing))
		for i, g := range missing {
			parts[i] = g.String()
		}
		fmt.Fprintf(w, "Missing sequence numbers: %s\n", strings.Join(parts, ", "))
	}
}
