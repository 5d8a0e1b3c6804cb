package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/glucoble/pkg/session"
)

func newMonitorCmd() *cobra.Command {
	var (
		connectTimeout time.Duration
		noReportAll    bool
	)

	cmd := &cobra.Command{
		Use:   "monitor <device-address>",
		Short: "Stream decoded records from a glucose meter",
		Long: fmt.Sprintf(`Connects to a glucose meter, subscribes to its measurement, context and
RACP characteristics, reads the feature and device information values and
requests all stored records. Every value is printed as it arrives until the
meter disconnects or Ctrl+C is pressed.

Examples:
  glucoble monitor %s
  glucoble monitor %s -o json --script filter.lua
  glucoble monitor %s --no-report-all

%s`, exampleDeviceAddress, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
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
			if noReportAll {
				cfg.ReportAllOnConnect = false
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

			handler := func(ev session.Event) {
				if err := printer.Print(ev.Result); err != nil {
					logger.WithField("error", err).Error("Failed to print record")
				}
			}
			sess, err := session.New(cfg, logger, handler)
			if err != nil {
				return err
			}

			ctx, cancel := withSignals(cmd.Context())
			defer cancel()

			if err := sess.Connect(ctx, address); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Connected to %s. Press Ctrl+C to stop...\n", address)

			select {
			case <-ctx.Done():
			case <-sess.Done():
			}
			cause := sess.Err()
			if err := sess.Close(); err != nil {
				logger.WithField("error", err).Warn("Failed to close session")
			}

			m := sess.Metrics()
			logger.WithFields(logrus.Fields{
				"received":    m.Received,
				"decoded":     m.Decoded,
				"failed":      m.Failed,
				"overwritten": m.Overwritten,
			}).Info("Session finished")
			printSummary(cmd.ErrOrStderr(), address, sess.Records())

			if errors.Is(cause, session.ErrConnectionLost) {
				return ErrConnectionLost
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&connectTimeout, "timeout", 30*time.Second, "Connection timeout")
	cmd.Flags().BoolVar(&noReportAll, "no-report-all", false, "Do not request stored records on connect")
	return cmd
}
