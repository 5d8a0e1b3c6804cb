// Package script runs user Lua hooks over decoded records.
//
// A hook script defines a global function on_record(rec). rec is a table built
// from the record's structured fields. The return value decides what happens
// to the record:
//
//	nil or false   drop it
//	true           keep the default rendering
//	a string       print the string instead
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aarzilli/golua/lua"
	"github.com/sirupsen/logrus"
)

// EntryPoint is the global function every hook must define
const EntryPoint = "on_record"

// Action tells the caller what to do with a record
type Action int

const (
	Keep Action = iota
	Drop
	Replace
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Outcome is the result of running the hook on one record
type Outcome struct {
	Action Action
	Text   string
}

// Error describes a failure inside a hook script
type Error struct {
	Type    string // "syntax", "runtime", "api"
	Message string
	Line    int
	Source  string
}

func (e *Error) Error() string {
	where := e.Source
	if e.Line > 0 {
		where = fmt.Sprintf("%s, line %d", where, e.Line)
	}
	if where == "" {
		return fmt.Sprintf("Lua %s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("Lua %s error (%s): %s", e.Type, where, e.Message)
}

// Is matches any *Error of the same Type
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Type == other.Type
	}
	return false
}

var (
	ErrSyntax  = &Error{Type: "syntax"}
	ErrRuntime = &Error{Type: "runtime"}
	ErrAPI     = &Error{Type: "api"}
)

// Hook is a loaded Lua script. Apply may be called from any goroutine;
// calls are serialized.
type Hook struct {
	mu     sync.Mutex
	state  *lua.State
	name   string
	logger *logrus.Logger
}

// NewHook compiles source and checks that it defines on_record
func NewHook(source, name string, logger *logrus.Logger) (*Hook, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if strings.TrimSpace(source) == "" {
		return nil, &Error{Type: "api", Message: "empty script", Source: name}
	}

	h := &Hook{state: lua.NewState(), name: name, logger: logger}
	h.state.OpenLibs()
	h.registerPrint()

	L := h.state
	if status := L.LoadString(source); status != 0 {
		err := h.popError("syntax")
		h.Close()
		return nil, err
	}
	if err := L.Call(0, 0); err != nil {
		luaErr := h.errorFrom("runtime", err)
		h.Close()
		return nil, luaErr
	}

	L.GetGlobal(EntryPoint)
	defined := L.IsFunction(-1)
	L.Pop(1)
	if !defined {
		h.Close()
		return nil, &Error{Type: "api", Message: fmt.Sprintf("script must define function %s(rec)", EntryPoint), Source: name}
	}

	logger.WithField("script", name).Debug("Lua hook loaded")
	return h, nil
}

// LoadHook reads a hook script from path
func LoadHook(path string, logger *logrus.Logger) (*Hook, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return NewHook(string(content), path, logger)
}

// Apply runs on_record over a record's fields. fields may be any value that
// marshals to a JSON object, such as the ordered map from Result.Fields.
func (h *Hook) Apply(fields any) (Outcome, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return Outcome{}, fmt.Errorf("record is not an object: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return Outcome{}, &Error{Type: "api", Message: "hook is closed", Source: h.name}
	}

	L := h.state
	L.GetGlobal(EntryPoint)
	pushValue(L, rec)
	if err := L.Call(1, 1); err != nil {
		L.SetTop(0)
		return Outcome{}, h.errorFrom("runtime", err)
	}
	defer L.Pop(1)

	switch {
	case L.IsNil(-1):
		return Outcome{Action: Drop}, nil
	case L.IsBoolean(-1):
		if L.ToBoolean(-1) {
			return Outcome{Action: Keep}, nil
		}
		return Outcome{Action: Drop}, nil
	case L.Type(-1) == lua.LUA_TSTRING:
		return Outcome{Action: Replace, Text: L.ToString(-1)}, nil
	default:
		return Outcome{}, &Error{
			Type:    "api",
			Message: fmt.Sprintf("%s must return nil, a boolean or a string, got %s", EntryPoint, L.Typename(int(L.Type(-1)))),
			Source:  h.name,
		}
	}
}

// Close releases the Lua state
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != nil {
		h.state.Close()
		h.state = nil
	}
}

// registerPrint routes Lua print() to the logger
func (h *Hook) registerPrint() {
	h.state.PushGoFunction(func(L *lua.State) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			L.GetGlobal("tostring")
			L.PushValue(i)
			L.Call(1, 1)
			parts = append(parts, L.ToString(-1))
			L.Pop(1)
		}
		h.logger.WithField("script", h.name).Info(strings.Join(parts, "\t"))
		return 0
	})
	h.state.SetGlobal("print")
}

// pushValue pushes a JSON-decoded value; arrays become 1-based tables
func pushValue(L *lua.State, v any) {
	switch val := v.(type) {
	case nil:
		L.PushNil()
	case bool:
		L.PushBoolean(val)
	case string:
		L.PushString(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			L.PushInteger(int64(val))
		} else {
			L.PushNumber(val)
		}
	case []any:
		L.NewTable()
		for i, item := range val {
			L.PushInteger(int64(i + 1))
			pushValue(L, item)
			L.SetTable(-3)
		}
	case map[string]any:
		L.NewTable()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			L.PushString(k)
			pushValue(L, val[k])
			L.SetTable(-3)
		}
	default:
		L.PushString(fmt.Sprint(val))
	}
}

// luaPosition matches the chunk prefix Lua puts on messages: [string "..."]:12: msg
var luaPosition = regexp.MustCompile(`^\[string ".*?"\]:(\d+):\s*`)

func (h *Hook) popError(errType string) *Error {
	L := h.state
	msg := "non-string error object"
	if L.GetTop() > 0 {
		if L.IsString(-1) {
			msg = L.ToString(-1)
		}
		L.Pop(1)
	}
	return h.parseMessage(errType, msg)
}

func (h *Hook) errorFrom(errType string, err error) *Error {
	var luaErr *lua.LuaError
	msg := err.Error()
	if errors.As(err, &luaErr) {
		msg = luaErr.Error()
	}
	return h.parseMessage(errType, msg)
}

func (h *Hook) parseMessage(errType, msg string) *Error {
	e := &Error{Type: errType, Message: msg, Source: h.name}
	if m := luaPosition.FindStringSubmatch(msg); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
		e.Message = msg[len(m[0]):]
	}
	return e
}
