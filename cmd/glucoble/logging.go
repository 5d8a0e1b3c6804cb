package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/glucoble/pkg/config"
)

// loadConfig reads --config and overlays the global flags the user set explicitly.
// --log-level takes precedence over --verbose.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overlay := map[string]*string{
		"log-level": &cfg.LogLevel,
		"output":    &cfg.OutputFormat,
		"color":     &cfg.Color,
		"script":    &cfg.Script,
	}
	for name, field := range overlay {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*field = f.Value.String()
		}
	}
	if f := cmd.Flags().Lookup("log-level"); f == nil || !f.Changed {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.LogLevel = logrus.DebugLevel.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// configureLogger loads the settings and builds a logger writing to the command's stderr
func configureLogger(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	return cfg, logger, nil
}
