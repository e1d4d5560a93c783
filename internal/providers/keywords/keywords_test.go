package keywords

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/protocol"
)

func provide(t *testing.T, p *Provider, lang string) []*completion.Candidate {
	t.Helper()
	doc := document.New("file:///x", lang, 1, "")
	list, err := p.ProvideCandidates(context.Background(), doc, protocol.Position{}, completion.TriggerContext{})
	require.NoError(t, err)
	if list == nil {
		return nil
	}
	return list.Items
}

func find(items []*completion.Candidate, label string) *completion.Candidate {
	for _, c := range items {
		if c.Label == label {
			return c
		}
	}
	return nil
}

func TestNew_BuiltinSets(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	langs := p.Languages()
	assert.Equal(t, 25, langs["go"])
	assert.Equal(t, 22, langs["lua"])

	items := provide(t, p, "go")
	require.Len(t, items, 25)

	fn := find(items, "func")
	require.NotNil(t, fn)
	assert.Equal(t, protocol.CompletionItemKindSnippet, fn.Kind)
	assert.Equal(t, protocol.InsertTextFormatSnippet, fn.InsertTextFormat)
	assert.Equal(t, "function declaration", fn.Detail)
	assert.False(t, fn.NeedsResolve)

	def := find(items, "defer")
	require.NotNil(t, def)
	assert.Equal(t, protocol.CompletionItemKindKeyword, def.Kind)
	assert.True(t, def.NeedsResolve)
	assert.Equal(t, Data{Language: "go"}, def.Data)

	assert.Nil(t, provide(t, p, "python"))
}

func TestParseSet(t *testing.T) {
	set, err := ParseSet([]byte(`
languages: [sql]
keywords:
  - label: SELECT
    kind: keyword
    command: { title: Format, command: sql.format, arguments: [1] }
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"sql"}, set.Languages)
	require.Len(t, set.Keywords, 1)
	require.NotNil(t, set.Keywords[0].Command)
	assert.Equal(t, "sql.format", set.Keywords[0].Command.Command)

	set, err = ParseSet([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, set.Keywords)

	_, err = ParseSet([]byte("languages: [x]\nkeywords:\n  - label: a\n    colour: red\n"))
	assert.Error(t, err, "unknown field")

	_, err = ParseSet([]byte("keywords:\n  - label: a\n"))
	assert.Error(t, err, "no languages")

	_, err = ParseSet([]byte("languages: [x]\nkeywords:\n  - detail: d\n"))
	assert.Error(t, err, "no label")
}

func TestLoadFile(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "go.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
languages: [Go]
keywords:
  - label: defer
    detail: overridden
  - label: iota
    kind: constant
    command: { title: Explain, command: docs.show }
`), 0o600))

	require.NoError(t, p.LoadFile(path))
	require.NoError(t, p.LoadFile(filepath.Join(dir, "missing.yaml")))

	items := provide(t, p, "go")
	assert.Len(t, items, 26)
	assert.Equal(t, "overridden", find(items, "defer").Detail)

	iota := find(items, "iota")
	require.NotNil(t, iota)
	assert.Equal(t, protocol.CompletionItemKindConstant, iota.Kind)
	require.NotNil(t, iota.Command)
	assert.Equal(t, "docs.show", iota.Command.Command)

	require.NoError(t, os.WriteFile(path, []byte("languages: [\n"), 0o600))
	assert.Error(t, p.LoadFile(path))
}

func TestResolve(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	out, err := p.ResolveCandidate(context.Background(), &completion.Candidate{Label: "select", NeedsResolve: true, Data: Data{Language: "go"}})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.NotNil(t, out.Documentation)
	assert.Equal(t, protocol.MarkupKindMarkdown, out.Documentation.Kind)
	assert.Contains(t, out.Documentation.Value, "`select` statement")
	assert.False(t, out.NeedsResolve)

	out, err = p.ResolveCandidate(context.Background(), &completion.Candidate{Label: "break", Data: Data{Language: "go"}})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = p.ResolveCandidate(context.Background(), &completion.Candidate{Label: "select"})
	require.NoError(t, err)
	assert.Nil(t, out)
}
