package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextAsserter_DefaultOptions(t *testing.T) {
	opts := NewTextAsserter(t).options
	assert.True(t, opts.TrimSpace)
	assert.True(t, opts.IgnoreTrailingWhitespace)
	assert.False(t, opts.EnableColors)
}

func TestTextAsserter(t *testing.T) {
	tests := []struct {
		name     string
		opts     []TextOption
		actual   string
		expected string
		wantFail bool
	}{
		{name: "identical", actual: "a\nb", expected: "a\nb"},
		{name: "surrounding whitespace", actual: "\n a\nb  \n", expected: " a\nb"},
		{name: "trailing whitespace kept when strict", opts: []TextOption{WithIgnoreTrailingWhitespace(false)}, actual: "a \nb", expected: "a\nb", wantFail: true},
		{name: "trim disabled", opts: []TextOption{WithTrimSpace(false)}, actual: "\na", expected: "a", wantFail: true},
		{name: "different lines", actual: "a\nc", expected: "a\nb", wantFail: true},
		{name: "different lines colored", opts: []TextOption{WithEnableColors(true)}, actual: "a\nc", expected: "a\nb", wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingT{}
			NewTextAsserterWithInterface(rec).WithOptions(tt.opts...).Assert(tt.actual, tt.expected)
			if tt.wantFail {
				assert.Len(t, rec.messages, 1)
				assert.Contains(t, rec.messages[0], "Text assertion failed")
			} else {
				assert.Empty(t, rec.messages)
			}
		})
	}
}

func TestMustHex(t *testing.T) {
	assert.Equal(t, []byte{0x0B, 0x04, 0x00}, MustHex(t, "0B 04-00"))
	assert.Equal(t, []byte{0xE6, 0x07}, MustHex(t, "e6:07"))
}
