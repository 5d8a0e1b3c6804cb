package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/srg/glucoble/internal/script"
	"github.com/srg/glucoble/pkg/characteristic"
	"github.com/srg/glucoble/pkg/config"
)

// Printer renders decode results in the configured format
type Printer struct {
	w      io.Writer
	format string
	hook   *script.Hook
	yaml   *yaml.Encoder

	ok, failed, unknown *color.Color
}

// newPrinter builds a printer for w. hook may be nil.
func newPrinter(w io.Writer, cfg *config.Config, hook *script.Hook) *Printer {
	p := &Printer{
		w:       w,
		format:  cfg.OutputFormat,
		hook:    hook,
		ok:      color.New(color.FgGreen),
		failed:  color.New(color.FgRed),
		unknown: color.New(color.FgYellow),
	}

	enable := useColor(w, cfg.Color)
	for _, c := range []*color.Color{p.ok, p.failed, p.unknown} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	if p.format == config.FormatYAML {
		p.yaml = yaml.NewEncoder(w)
		p.yaml.SetIndent(2)
	}
	return p
}

// useColor resolves the color mode; auto means "stdout is a terminal"
func useColor(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Print writes one result, running it through the hook first when one is set
func (p *Printer) Print(r characteristic.Result) error {
	if p.hook != nil {
		outcome, err := p.hook.Apply(r.Fields())
		if err != nil {
			return err
		}
		switch outcome.Action {
		case script.Drop:
			return nil
		case script.Replace:
			_, err := fmt.Fprintln(p.w, outcome.Text)
			return err
		}
	}

	switch p.format {
	case config.FormatJSON:
		return json.NewEncoder(p.w).Encode(r)
	case config.FormatYAML:
		node, err := toYAMLNode(r)
		if err != nil {
			return err
		}
		return p.yaml.Encode(node)
	default:
		_, err := fmt.Fprintln(p.w, p.colorFor(r).Sprint(r.String()))
		return err
	}
}

// Close flushes a pending YAML stream
func (p *Printer) Close() error {
	if p.yaml != nil {
		return p.yaml.Close()
	}
	return nil
}

func (p *Printer) colorFor(r characteristic.Result) *color.Color {
	switch {
	case r.Err != nil:
		return p.failed
	case r.ID == characteristic.Unknown:
		return p.unknown
	default:
		return p.ok
	}
}

// toYAMLNode goes through JSON so the YAML keeps the same key order and
// scalar forms as the JSON output.
func toYAMLNode(v any) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert result to YAML: %w", err)
	}
	plainStyle(&node)
	return &node, nil
}

// plainStyle clears the flow and quoting styles JSON input leaves on every node;
// the encoder re-quotes strings that would otherwise read as other types.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}

// openHook loads the configured Lua hook; it returns nil when none is set
func openHook(cfg *config.Config, logger *logrus.Logger) (*script.Hook, error) {
	if cfg.Script == "" {
		return nil, nil
	}
	return script.LoadHook(cfg.Script, logger)
}
