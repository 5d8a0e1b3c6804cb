package script

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/glucoble/internal/testutils"
)

func measurementFields() *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	om.Set("id", "GlucoseMeasurement")
	om.Set("hex", "0B0400E60707")
	om.Set("length", 16)
	om.Set("value", map[string]any{
		"sequence_number": 4,
		"concentration":   map[string]any{"value": "0.00300", "unit": "mg/dL"},
		"context_follows": false,
	})
	return om
}

func newHook(t *testing.T, source string) *Hook {
	t.Helper()
	h, err := NewHook(source, "test.lua", testutils.NewTestHelper(t).Logger)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestHook_Actions(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected Outcome
	}{
		{
			name:     "nil drops",
			source:   `function on_record(rec) return nil end`,
			expected: Outcome{Action: Drop},
		},
		{
			name:     "false drops",
			source:   `function on_record(rec) return false end`,
			expected: Outcome{Action: Drop},
		},
		{
			name:     "true keeps",
			source:   `function on_record(rec) return true end`,
			expected: Outcome{Action: Keep},
		},
		{
			name:     "string replaces",
			source:   `function on_record(rec) return rec.id .. "#" .. rec.value.sequence_number end`,
			expected: Outcome{Action: Replace, Text: "GlucoseMeasurement#4"},
		},
		{
			name: "nested fields",
			source: `function on_record(rec)
				local c = rec.value.concentration
				return c.value .. " " .. c.unit
			end`,
			expected: Outcome{Action: Replace, Text: "0.00300 mg/dL"},
		},
		{
			name: "filter on id",
			source: `function on_record(rec)
				return rec.id == "GlucoseMeasurement"
			end`,
			expected: Outcome{Action: Keep},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHook(t, tt.source)
			out, err := h.Apply(measurementFields())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestHook_Arrays(t *testing.T) {
	h := newHook(t, `function on_record(rec) return tostring(#rec.items) .. ":" .. rec.items[1] end`)

	out, err := h.Apply(map[string]any{"items": []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "3:a", out.Text)
}

func TestHook_StatePersistsAcrossRecords(t *testing.T) {
	h := newHook(t, `
		count = 0
		function on_record(rec)
			count = count + 1
			return "record " .. count
		end`)

	for i, expected := range []string{"record 1", "record 2", "record 3"} {
		out, err := h.Apply(measurementFields())
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, expected, out.Text)
	}
}

func TestHook_PrintGoesToLogger(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	h, err := NewHook(`function on_record(rec) print("seen", rec.length) return true end`, "printer.lua", helper.Logger)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Apply(measurementFields())
	require.NoError(t, err)
	assert.Contains(t, helper.Logs.String(), `seen\t16`)
	assert.Contains(t, helper.Logs.String(), "script=printer.lua")
}

func TestNewHook_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   error
	}{
		{name: "empty", source: "  \n", kind: ErrAPI},
		{name: "syntax", source: "function on_record(rec) return end end", kind: ErrSyntax},
		{name: "missing entry point", source: "x = 1", kind: ErrAPI},
		{name: "entry point not a function", source: "on_record = 5", kind: ErrAPI},
		{name: "top-level failure", source: "error('boom')", kind: ErrRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHook(tt.source, "bad.lua", nil)
			assert.Nil(t, h)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestHook_RuntimeError(t *testing.T) {
	h := newHook(t, "function on_record(rec)\n  return rec.missing.field\nend")

	_, err := h.Apply(measurementFields())
	require.ErrorIs(t, err, ErrRuntime)

	var hookErr *Error
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "test.lua", hookErr.Source)

	// the hook stays usable after a failure
	_, err = h.Apply(map[string]any{"missing": map[string]any{"field": 1}})
	assert.NoError(t, err)
}

func TestHook_BadReturnType(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		typeName string
	}{
		{name: "table", source: `function on_record(rec) return {} end`, typeName: "got table"},
		{name: "number is not text", source: `function on_record(rec) return 42 end`, typeName: "got number"},
		{name: "sequence number as is", source: `function on_record(rec) return rec.value.sequence_number end`, typeName: "got number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHook(t, tt.source)
			_, err := h.Apply(measurementFields())
			assert.ErrorIs(t, err, ErrAPI)
			assert.ErrorContains(t, err, tt.typeName)
		})
	}
}

func TestHook_NonObjectRecord(t *testing.T) {
	h := newHook(t, `function on_record(rec) return true end`)

	_, err := h.Apply([]int{1, 2})
	assert.ErrorContains(t, err, "record is not an object")
}

func TestHook_Closed(t *testing.T) {
	h, err := NewHook(`function on_record(rec) return true end`, "closed.lua", nil)
	require.NoError(t, err)
	h.Close()
	h.Close()

	_, err = h.Apply(measurementFields())
	assert.ErrorIs(t, err, ErrAPI)
}

func TestHook_ConcurrentApply(t *testing.T) {
	h := newHook(t, `n = 0 function on_record(rec) n = n + 1 return tostring(n) end`)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := h.Apply(measurementFields())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	out, err := h.Apply(measurementFields())
	require.NoError(t, err)
	assert.Equal(t, "201", out.Text)
}

func TestLoadHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hook.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function on_record(rec) return rec.id end`), 0o600))

	h, err := LoadHook(path, nil)
	require.NoError(t, err)
	defer h.Close()

	out, err := h.Apply(measurementFields())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Action: Replace, Text: "GlucoseMeasurement"}, out)

	_, err = LoadHook(filepath.Join(t.TempDir(), "missing.lua"), nil)
	assert.ErrorContains(t, err, "failed to read script")
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "Lua runtime error (x.lua, line 3): boom", (&Error{Type: "runtime", Message: "boom", Line: 3, Source: "x.lua"}).Error())
	assert.Equal(t, "Lua api error: empty script", (&Error{Type: "api", Message: "empty script"}).Error())
	assert.Equal(t, "drop", Drop.String())
}
