package words

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/protocol"
)

func provide(t *testing.T, p *Provider, text string, pos protocol.Position) []*completion.Candidate {
	t.Helper()
	doc := document.New("file:///notes.txt", "plaintext", 1, text)
	list, err := p.ProvideCandidates(context.Background(), doc, pos, completion.TriggerContext{Kind: protocol.CompletionTriggerKindInvoked})
	require.NoError(t, err)
	require.NotNil(t, list)
	return list.Items
}

func labelsOf(items []*completion.Candidate) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Label
	}
	return out
}

func TestProvider_Words(t *testing.T) {
	text := "alpha beta go alpha _hidden 42abc gamma\nbet"
	items := provide(t, New(3), text, protocol.Position{Line: 1, Character: 3})

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, labelsOf(items))
	assert.Equal(t, Data{Occurrences: 2}, items[0].Data)
	assert.True(t, items[0].NeedsResolve)
}

func TestProvider_CurrentWordNeedsAnotherOccurrence(t *testing.T) {
	text := "counter := counter + 1\ncounter"

	items := provide(t, New(3), text, protocol.Position{Line: 1, Character: 7})
	require.Equal(t, []string{"counter"}, labelsOf(items))
	assert.Equal(t, Data{Occurrences: 2}, items[0].Data)

	items = provide(t, New(3), "unique", protocol.Position{Line: 0, Character: 6})
	assert.Empty(t, items)
}

func TestProvider_MinLength(t *testing.T) {
	items := provide(t, New(0), "ab abc abcd", protocol.Position{})
	assert.Equal(t, []string{"abc", "abcd"}, labelsOf(items))

	items = provide(t, New(1), "a ab ", protocol.Position{Line: 0, Character: 5})
	assert.Equal(t, []string{"a", "ab"}, labelsOf(items))
}

func TestProvider_Resolve(t *testing.T) {
	p := New(3)

	out, err := p.ResolveCandidate(context.Background(), &completion.Candidate{Label: "alpha", NeedsResolve: true, Data: Data{Occurrences: 3}})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "3 occurrences in buffer", out.Detail)
	assert.False(t, out.NeedsResolve)

	out, err = p.ResolveCandidate(context.Background(), &completion.Candidate{Label: "beta", NeedsResolve: true, Data: Data{Occurrences: 1}})
	require.NoError(t, err)
	assert.Equal(t, "1 occurrence in buffer", out.Detail)

	out, err = p.ResolveCandidate(context.Background(), &completion.Candidate{Label: "foreign"})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestProvider_WithAggregator(t *testing.T) {
	reg := &singleRegistry{id: ID, p: New(3)}
	agg := completion.New(reg, nil, completion.StaticSettings{FuzzyMatch: true})

	doc := document.New("file:///notes.txt", "plaintext", 1, "printf println prefix\npr")
	params := protocol.CompletionParams{}
	params.Position = protocol.Position{Line: 1, Character: 2}

	list, err := agg.Query(context.Background(), doc, params)
	require.NoError(t, err)
	require.Len(t, list.Items, 3)

	resolved, err := agg.Resolve(context.Background(), list.Items[0])
	require.NoError(t, err)
	assert.Contains(t, resolved.Detail, "occurrence")
	assert.JSONEq(t, string(list.Items[0].Data), string(resolved.Data))
}

type singleRegistry struct {
	id string
	p  *Provider
}

func (r *singleRegistry) ProvidersForDocument(completion.Document) []completion.Registration {
	return []completion.Registration{{ID: r.id, Provider: r.p}}
}

func (r *singleRegistry) ProviderByID(id string) (completion.Provider, bool) {
	if id != r.id {
		return nil, false
	}
	return r.p, true
}
