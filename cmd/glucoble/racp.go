package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/glucoble/pkg/characteristic"
	"github.com/srg/glucoble/pkg/glucose"
)

func newRACPCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "racp",
		Short: "Print the Report All Stored Records command",
		Long: `Prints the Record Access Control Point command that asks a meter to send
every stored record. Write it with response to characteristic 0x2A52.

Examples:
  glucoble racp --raw
  glucoble racp -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := glucose.ReportAllStoredRecords()
			if raw {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), command)
				return err
			}

			cfg, _, err := configureLogger(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			printer := newPrinter(cmd.OutOrStdout(), cfg, nil)
			defer printer.Close()
			return printer.Print(characteristic.Decode(
				characteristic.GlucoseServiceUUID, characteristic.RecordAccessControlPointUUID, command.Bytes()))
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the command bytes as hex")
	return cmd
}
