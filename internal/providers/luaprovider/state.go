package luaprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultCallTimeout bounds a single call into a script.
const DefaultCallTimeout = 2 * time.Second

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrFunctionNotFound is returned when a script does not define a function.
	ErrFunctionNotFound = errors.New("lua function not found")
)

// state wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe; every access goes through mu.
type state struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	closed  bool
}

func newState(timeout time.Duration) *state {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	return &state{L: L, timeout: timeout}
}

// openSafeLibraries opens only the libraries that cannot reach the host.
// io, os, debug and package are left closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// doString runs a chunk in the state.
func (s *state) doString(ctx context.Context, name, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader(code), name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	top := s.L.GetTop()
	defer s.L.SetTop(top)
	return s.protect(ctx, func() error {
		s.L.Push(fn)
		return s.L.PCall(0, lua.MultRet, nil)
	})
}

// hasFunction reports whether the global name is a function.
func (s *state) hasFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// global returns a global value converted with fn while the lock is held.
func (s *state) global(name string, fn func(L *lua.LState, v lua.LValue)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn(s.L, s.L.GetGlobal(name))
}

// call invokes global function name with arguments built by args and hands
// the single result to result, all under the lock.
func (s *state) call(
	ctx context.Context,
	name string,
	args func(L *lua.LState) []lua.LValue,
	result func(L *lua.LState, ret lua.LValue) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fnVal := s.L.GetGlobal(name)
	if fnVal.Type() != lua.LTFunction {
		return fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}

	var argv []lua.LValue
	if args != nil {
		argv = args(s.L)
	}

	top := s.L.GetTop()
	err := s.protect(ctx, func() error {
		s.L.Push(fnVal)
		for _, a := range argv {
			s.L.Push(a)
		}
		return s.L.PCall(len(argv), 1, nil)
	})
	if err != nil {
		s.L.SetTop(top)
		return fmt.Errorf("call %s: %w", name, err)
	}

	ret := s.L.Get(-1)
	s.L.SetTop(top)
	if result == nil {
		return nil
	}
	return result(s.L, ret)
}

// protect runs fn with the call timeout applied and panics recovered.
// Must be called with lock held.
func (s *state) protect(ctx context.Context, fn func() error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if err = fn(); err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

func (s *state) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.Close()
	s.closed = true
}
