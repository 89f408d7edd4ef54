package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicebot/internal/dice"
)

var (
	// ErrNotLoaded is returned by Call before any macro directory has been loaded.
	ErrNotLoaded = errors.New("scripting: no macros loaded")
	// ErrUnknownMacro is returned when no global function has the requested name.
	ErrUnknownMacro = errors.New("scripting: unknown macro")
	// ErrMacroFailed wraps Lua runtime errors and bad return values.
	ErrMacroFailed = errors.New("scripting: macro failed")
)

// Manager owns the macro VM. A single LState is not goroutine-safe, so every
// load and call holds mu.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	roller    *dice.Roller
	limits    dice.Limits
	logger    *zap.Logger
}

// NewManager creates a Manager whose dice module rolls with roller under limits.
//
// Precondition: roller and logger must be non-nil; instLimit <= 0 selects
// DefaultInstructionLimit.
func NewManager(roller *dice.Roller, limits dice.Limits, instLimit int, logger *zap.Logger) *Manager {
	return &Manager{
		instLimit: instLimit,
		roller:    roller,
		limits:    limits,
		logger:    logger,
	}
}

// LoadDir builds a fresh VM, registers the dice module, executes every *.lua
// file in dir in lexicographic order and then replaces the current VM.
//
// Postcondition: On error the previous VM stays in service.
func (m *Manager) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading macro dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	L := NewSandboxedState()
	m.registerModules(L)
	for _, path := range files {
		err := runLimited(ctx, L, m.instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.L
	m.L = L
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}

	m.logger.Info("macros loaded",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
	)
	return nil
}

// Has reports whether name is a loaded macro.
func (m *Manager) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return false
	}
	_, ok := macro(m.L, name)
	return ok
}

// macro looks up a global Lua function defined by a loaded file. Go builtins
// such as print or pcall are not macros.
func macro(L *lua.LState, name string) (*lua.LFunction, bool) {
	fn, ok := L.GetGlobal(name).(*lua.LFunction)
	if !ok || fn.IsG {
		return nil, false
	}
	return fn, true
}

// Call invokes macro name with string arguments and returns its result as text.
// A nil return yields "". Tables and functions are rejected.
//
// Postcondition: Lua runtime errors are logged at warn and returned wrapping ErrMacroFailed.
func (m *Manager) Call(ctx context.Context, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return "", ErrNotLoaded
	}
	L := m.L
	fn, ok := macro(L, name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMacro, name)
	}

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}
	err := runLimited(ctx, L, m.instLimit, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...)
	})
	if err != nil {
		m.logger.Warn("macro runtime error",
			zap.String("macro", name),
			zap.Strings("args", args),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %s: %v", ErrMacroFailed, name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString, lua.LNumber, lua.LBool:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: %s returned %s", ErrMacroFailed, name, ret.Type())
	}
}

// Macros returns the names of all global Lua functions defined by loaded files.
func (m *Manager) Macros() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return nil
	}
	var names []string
	m.L.G.Global.ForEach(func(k, v lua.LValue) {
		fn, ok := v.(*lua.LFunction)
		if !ok || fn.IsG {
			return
		}
		if s, ok := k.(lua.LString); ok {
			names = append(names, string(s))
		}
	})
	sort.Strings(names)
	return names
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
