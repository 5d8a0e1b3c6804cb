package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/glucoble/pkg/characteristic"
)

func newDecodeCmd() *cobra.Command {
	var (
		serviceUUID string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "decode <char-uuid> <hex>...",
		Short: "Decode characteristic values given as hex",
		Long: `Decodes one or more raw values of a characteristic.

Hex may be written with spaces, colons, dashes or 0x prefixes.

Examples:
  # Glucose Measurement with time offset, concentration and sensor status
  glucoble decode 2a18 "0B 0400 E607 07 1E 14 01 08 3900 2CB1 4A 00"

  # Glucose Feature
  glucoble decode 2a51 0x01,0x00 -o json

  # Device Information string
  glucoble decode 2a29 41:63:6D:65 --service 180a`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := characteristic.ParseUUID(serviceUUID)
			if err != nil {
				return fmt.Errorf("invalid service UUID %q: %w", serviceUUID, err)
			}
			char, err := characteristic.ParseUUID(args[0])
			if err != nil {
				return fmt.Errorf("invalid characteristic UUID %q: %w", args[0], err)
			}
			values := make([][]byte, 0, len(args)-1)
			for _, arg := range args[1:] {
				data, err := parseHex(arg)
				if err != nil {
					return err
				}
				values = append(values, data)
			}

			cfg, logger, err := configureLogger(cmd)
			if err != nil {
				return err
			}
			// All arguments validated - don't show usage on runtime errors
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

			failed := 0
			for _, data := range values {
				r := characteristic.Decode(svc, char, data)
				if !r.OK() {
					failed++
					logger.WithField("result", r.String()).Debug("Value not decoded")
				}
				if err := printer.Print(r); err != nil {
					return err
				}
			}
			if strict && failed > 0 {
				return fmt.Errorf("%w: %d of %d", ErrDecodeFailed, failed, len(values))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceUUID, "service", characteristic.GlucoseServiceUUID.String(), "Service UUID the characteristic belongs to")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any value is unknown or fails to decode")
	return cmd
}
