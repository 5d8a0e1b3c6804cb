package testutils

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	Logs   *bytes.Buffer
}

// NewTestHelper creates a test helper whose logger writes into Logs.
func NewTestHelper(t *testing.T) *TestHelper {
	logs := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logs)
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return &TestHelper{T: t, Logger: logger, Logs: logs}
}

// MustHex decodes hex that may contain spaces, colons or dashes between bytes.
func MustHex(t testing.TB, s string) []byte {
	t.Helper()
	clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}
