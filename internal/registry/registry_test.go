package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/protocol"
)

type nopProvider struct{ name string }

func (nopProvider) ProvideCandidates(context.Context, completion.Document, protocol.Position, completion.TriggerContext) (*completion.CandidateList, error) {
	return nil, nil
}

func ids(regs []completion.Registration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.ID
	}
	return out
}

func TestRegistry_Order(t *testing.T) {
	r := New()
	for _, id := range []string{"words", "keywords", "lua"} {
		require.NoError(t, r.Register(Entry{ID: id, Provider: nopProvider{id}}))
	}

	doc := document.New("file:///src/main.go", "go", 1, "")
	assert.Equal(t, []string{"words", "keywords", "lua"}, ids(r.ProvidersForDocument(doc)))

	assert.True(t, r.Unregister("keywords"))
	assert.False(t, r.Unregister("keywords"))
	assert.Equal(t, []string{"words", "lua"}, ids(r.ProvidersForDocument(doc)))
	assert.Equal(t, []string{"words", "lua"}, r.IDs())

	p, ok := r.ProviderByID("lua")
	require.True(t, ok)
	assert.Equal(t, nopProvider{"lua"}, p)

	_, ok = r.ProviderByID("keywords")
	assert.False(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Entry{ID: "words", Provider: nopProvider{}}))

	assert.ErrorIs(t, r.Register(Entry{ID: "words", Provider: nopProvider{}}), ErrDuplicateProvider)
	assert.ErrorIs(t, r.Register(Entry{ID: "", Provider: nopProvider{}}), ErrInvalidProvider)
	assert.ErrorIs(t, r.Register(Entry{ID: "nil"}), ErrInvalidProvider)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_TriggerCharactersCopied(t *testing.T) {
	r := New()
	triggers := []string{".", ":"}
	require.NoError(t, r.Register(Entry{ID: "p", Provider: nopProvider{}, TriggerCharacters: triggers}))
	triggers[0] = "!"

	regs := r.ProvidersForDocument(document.New("file:///a.txt", "plaintext", 1, ""))
	require.Len(t, regs, 1)
	assert.Equal(t, []string{".", ":"}, regs[0].TriggerCharacters)
}

func TestSelector_Matches(t *testing.T) {
	goDoc := document.New("file:///src/pkg/main.go", "go", 1, "")
	luaDoc := document.New("file:///home/u/init.lua", "lua", 1, "")

	tests := []struct {
		name     string
		selector Selector
		doc      completion.Document
		want     bool
	}{
		{"zero selector", Selector{}, goDoc, true},
		{"language match", Selector{Languages: []string{"go"}}, goDoc, true},
		{"language case", Selector{Languages: []string{"Go"}}, goDoc, true},
		{"language mismatch", Selector{Languages: []string{"lua"}}, goDoc, false},
		{"language wildcard", Selector{Languages: []string{"*"}}, luaDoc, true},
		{"base name glob", Selector{Pattern: "*.lua"}, luaDoc, true},
		{"base name glob mismatch", Selector{Pattern: "*.lua"}, goDoc, false},
		{"full path glob", Selector{Pattern: "/src/*/main.go"}, goDoc, true},
		{"both must match", Selector{Languages: []string{"go"}, Pattern: "*.lua"}, goDoc, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.selector.Matches(tt.doc))
		})
	}
}

func TestRegistry_SelectorFiltersButKeepsOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Entry{ID: "all", Provider: nopProvider{}}))
	require.NoError(t, r.Register(Entry{ID: "lua-only", Provider: nopProvider{}, Selector: Selector{Languages: []string{"lua"}}}))
	require.NoError(t, r.Register(Entry{ID: "go-only", Provider: nopProvider{}, Selector: Selector{Pattern: "*.go"}}))

	goDoc := document.New("file:///main.go", "go", 1, "")
	assert.Equal(t, []string{"all", "go-only"}, ids(r.ProvidersForDocument(goDoc)))

	// Lookup by id ignores selectors.
	_, ok := r.ProviderByID("lua-only")
	assert.True(t, ok)
}

func TestRegistry_WithAggregator(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Entry{ID: "static", Provider: staticProvider{"alpha", "beta"}}))

	agg := completion.New(r, nil, completion.StaticSettings{})
	list, err := agg.Query(context.Background(), document.New("file:///a.txt", "plaintext", 1, ""), protocol.CompletionParams{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "alpha", list.Items[0].Label)
}

type staticProvider []string

func (p staticProvider) ProvideCandidates(context.Context, completion.Document, protocol.Position, completion.TriggerContext) (*completion.CandidateList, error) {
	items := make([]*completion.Candidate, len(p))
	for i, l := range p {
		items[i] = &completion.Candidate{Label: l}
	}
	return completion.Items(items...), nil
}
