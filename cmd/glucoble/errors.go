package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/glucoble/internal/script"
	"github.com/srg/glucoble/pkg/session"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the meter dropped the connection mid-session
	ErrConnectionLost = session.ErrConnectionLost

	// ErrDecodeFailed is returned under --strict when any value failed to decode
	ErrDecodeFailed = errors.New("one or more values failed to decode")
)

// FormatUserError turns internal errors into messages fit for the terminal
func FormatUserError(err error) string {
	var scriptErr *script.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out: %v", err)
	case errors.Is(err, session.ErrNoGlucose):
		return "the device does not look like a glucose meter (no Glucose service 0x1808)"
	case errors.Is(err, ErrConnectionLost):
		return "the meter disconnected before the session ended"
	case errors.As(err, &scriptErr):
		return scriptErr.Error()
	default:
		return err.Error()
	}
}
