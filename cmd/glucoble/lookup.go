package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/srg/glucoble/internal/bledb"
	"github.com/srg/glucoble/pkg/characteristic"
)

func newLookupCmd() *cobra.Command {
	var db bool

	cmd := &cobra.Command{
		Use:   "lookup [uuid]...",
		Short: "List decodable characteristics or resolve UUID names",
		Long: `Without arguments, lists every (service, characteristic) pair glucoble decodes.
With arguments, resolves each UUID to its Bluetooth SIG name. --db lists the
whole name database instead.

Examples:
  glucoble lookup
  glucoble lookup --db
  glucoble lookup 2a18 0x180A 00002a52-0000-1000-8000-00805f9b34fb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if db {
				fmt.Fprintln(tw, "KIND\tUUID\tNAME")
				for _, e := range bledb.Services() {
					fmt.Fprintf(tw, "service\t%s\t%s\n", e.UUID, e.Name)
				}
				for _, e := range bledb.Characteristics() {
					fmt.Fprintf(tw, "characteristic\t%s\t%s\n", e.UUID, e.Name)
				}
				return nil
			}

			if len(args) == 0 {
				fmt.Fprintln(tw, "SERVICE\tCHAR\tID\tNAME")
				for _, e := range characteristic.Entries() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Service, e.Characteristic, e.ID,
						bledb.LookupCharacteristic(e.Characteristic.String()))
				}
				return nil
			}

			for _, uuid := range args {
				name := bledb.Lookup(uuid)
				if name == "" {
					name = "(unknown)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", bledb.NormalizeUUID(uuid), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&db, "db", false, "List every known service and characteristic name")
	return cmd
}
