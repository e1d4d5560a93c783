// Package luaprovider runs completion providers written in Lua.
//
// A script runs in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. It declares:
//
//	trigger_characters = { ".", ":" }     -- optional
//
//	function provide(ctx)                 -- required
//	  -- ctx.uri, ctx.language, ctx.line, ctx.character,
//	  -- ctx.word, ctx.trigger_kind, ctx.trigger_character
//	  return { "plain label", { label = "print", kind = "function" } }
//	  -- or: return { items = { ... }, incomplete = true }
//	end
//
//	function resolve(item)                -- optional
//	  return { detail = "...", documentation = "..." }
//	end
//
// Each call is bounded by a timeout and by the query context.
package luaprovider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/protocol"
)

// Provider is a completion provider backed by a Lua script.
type Provider struct {
	id       string
	state    *state
	triggers []string
	resolve  bool
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Load reads a script file. The provider id is the file name without
// extension.
func Load(ctx context.Context, path string, opts ...Option) (*Provider, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lua provider: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(ctx, id, string(code), opts...)
}

// New runs script and returns the provider it defines.
func New(ctx context.Context, id, script string, opts ...Option) (*Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := newState(o.timeout)
	if err := s.doString(ctx, id, script); err != nil {
		s.close()
		return nil, fmt.Errorf("lua provider %s: %w", id, err)
	}
	if !s.hasFunction("provide") {
		s.close()
		return nil, fmt.Errorf("lua provider %s: %w: provide", id, ErrFunctionNotFound)
	}

	p := &Provider{id: id, state: s, resolve: s.hasFunction("resolve")}
	s.global("trigger_characters", func(_ *lua.LState, v lua.LValue) {
		t, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		t.ForEach(func(_, ch lua.LValue) {
			if str, ok := ch.(lua.LString); ok && str != "" {
				p.triggers = append(p.triggers, string(str))
			}
		})
	})
	return p, nil
}

// ID returns the provider id.
func (p *Provider) ID() string { return p.id }

// TriggerCharacters returns the characters declared by the script.
func (p *Provider) TriggerCharacters() []string {
	return append([]string(nil), p.triggers...)
}

// ProvideCandidates implements completion.Provider.
func (p *Provider) ProvideCandidates(ctx context.Context, doc completion.Document, pos protocol.Position, trigger completion.TriggerContext) (*completion.CandidateList, error) {
	word := ""
	if rng, ok := doc.WordRangeAtPosition(pos); ok {
		word = doc.TextInRange(protocol.Range{Start: rng.Start, End: pos})
	}

	var list *completion.CandidateList
	err := p.state.call(ctx, "provide",
		func(L *lua.LState) []lua.LValue {
			t := L.NewTable()
			t.RawSetString("uri", lua.LString(doc.URI()))
			t.RawSetString("language", lua.LString(doc.LanguageID()))
			t.RawSetString("line", lua.LNumber(pos.Line))
			t.RawSetString("character", lua.LNumber(pos.Character))
			t.RawSetString("word", lua.LString(word))
			t.RawSetString("trigger_kind", lua.LString(trigger.Kind.String()))
			t.RawSetString("trigger_character", lua.LString(trigger.Character))
			return []lua.LValue{t}
		},
		func(_ *lua.LState, ret lua.LValue) error {
			var err error
			list, err = listFromLua(ret)
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("lua provider %s: %w", p.id, err)
	}
	return list, nil
}

// listFromLua accepts nil, an array of items, or {items = ..., incomplete = bool}.
func listFromLua(ret lua.LValue) (*completion.CandidateList, error) {
	t, ok := ret.(*lua.LTable)
	if !ok {
		if ret == lua.LNil {
			return nil, nil
		}
		return nil, fmt.Errorf("provide must return a table, got %s", ret.Type())
	}

	list := &completion.CandidateList{}
	items := t
	if inner, ok := t.RawGetString("items").(*lua.LTable); ok {
		items = inner
		list.IsIncomplete = lua.LVAsBool(t.RawGetString("incomplete"))
	}

	for i := 1; i <= items.Len(); i++ {
		c, err := candidateFromLua(items.RawGetInt(i))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		list.Items = append(list.Items, c)
	}
	return list, nil
}

// ResolveCandidate implements completion.Resolver. Scripts without a
// resolve function leave items unchanged.
func (p *Provider) ResolveCandidate(ctx context.Context, item *completion.Candidate) (*completion.Candidate, error) {
	if !p.resolve {
		return nil, nil
	}

	var out *completion.Candidate
	err := p.state.call(ctx, "resolve",
		func(L *lua.LState) []lua.LValue {
			return []lua.LValue{candidateToLua(L, item)}
		},
		func(_ *lua.LState, ret lua.LValue) error {
			if t, ok := ret.(*lua.LTable); ok {
				out = mergeResolved(item, t)
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("lua provider %s: %w", p.id, err)
	}
	return out, nil
}

// Close releases the Lua state.
func (p *Provider) Close() {
	p.state.close()
}

var (
	_ completion.Provider = (*Provider)(nil)
	_ completion.Resolver = (*Provider)(nil)
)
