package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/suggest/internal/protocol"
)

func pos(line, char int) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func TestDocument_LineText(t *testing.T) {
	doc := New("file:///a.go", "go", 1, "package main\r\n\nfunc main() {}")

	assert.Equal(t, 3, doc.LineCount())
	assert.Equal(t, "package main", doc.LineText(0))
	assert.Equal(t, "", doc.LineText(1))
	assert.Equal(t, "func main() {}", doc.LineText(2))
	assert.Equal(t, "", doc.LineText(7))
}

func TestDocument_OffsetRoundTrip(t *testing.T) {
	// "😀" is a surrogate pair in UTF-16 and 4 bytes in UTF-8.
	doc := New("file:///a.txt", "plaintext", 1, "ab😀cd\nxy")

	off := doc.OffsetAt(pos(0, 4))
	assert.Equal(t, 6, off)
	assert.Equal(t, pos(0, 4), doc.PositionAt(off))

	assert.Equal(t, 9, doc.OffsetAt(pos(1, 0)))
	assert.Equal(t, pos(1, 1), doc.PositionAt(10))
	assert.Equal(t, len(doc.Text()), doc.OffsetAt(pos(9, 0)))
}

func TestDocument_TextInRange(t *testing.T) {
	doc := New("file:///a.go", "go", 1, "fmt.Println(x)\nreturn")

	assert.Equal(t, "Println", doc.TextInRange(protocol.Range{Start: pos(0, 4), End: pos(0, 11)}))
	assert.Equal(t, "x)\nret", doc.TextInRange(protocol.Range{Start: pos(0, 12), End: pos(1, 3)}))
	assert.Equal(t, "", doc.TextInRange(protocol.Range{Start: pos(1, 3), End: pos(0, 1)}))
	assert.Equal(t, "fmt.Pri", doc.LinePrefix(pos(0, 7)))
}

func TestDocument_WordRangeAtPosition(t *testing.T) {
	doc := New("file:///a.go", "go", 1, "fmt.Println(my_var) ")

	tests := []struct {
		name   string
		at     protocol.Position
		want   protocol.Range
		wantOK bool
	}{
		{"inside word", pos(0, 6), protocol.Range{Start: pos(0, 4), End: pos(0, 11)}, true},
		{"at word end", pos(0, 3), protocol.Range{Start: pos(0, 0), End: pos(0, 3)}, true},
		{"underscore", pos(0, 14), protocol.Range{Start: pos(0, 12), End: pos(0, 18)}, true},
		{"after space", pos(0, 20), protocol.Range{}, false},
		{"bad line", pos(4, 0), protocol.Range{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := doc.WordRangeAtPosition(tt.at)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_Words(t *testing.T) {
	doc := New("file:///a.go", "go", 1, "foo bar(foo, baz_1)\nbar")
	assert.Equal(t, []string{"foo", "bar", "baz_1"}, doc.Words())
}

func TestLastUTF16Units(t *testing.T) {
	assert.Equal(t, "lo", LastUTF16Units("hello", 2))
	assert.Equal(t, "hello", LastUTF16Units("hello", 10))
	assert.Equal(t, "", LastUTF16Units("hello", 0))
	// Cutting through a surrogate pair drops the orphaned half.
	assert.Equal(t, "x", LastUTF16Units("😀x", 2))
	assert.Equal(t, "😀x", LastUTF16Units("😀x", 3))
}

func TestIsWordString(t *testing.T) {
	assert.True(t, IsWordString("abc_1"))
	assert.True(t, IsWordString("ä"))
	assert.False(t, IsWordString("."))
	assert.False(t, IsWordString(""))
}

func TestStore_Lifecycle(t *testing.T) {
	s := NewStore()

	doc, err := s.Open("file:///a.go", "go", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version())

	_, err = s.Open("file:///a.go", "go", "y")
	assert.ErrorIs(t, err, ErrDocumentAlreadyOpen)

	doc, err = s.Update("file:///a.go", "xy")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version())
	assert.Equal(t, "go", doc.LanguageID())

	got, ok := s.Get("file:///a.go")
	require.True(t, ok)
	assert.Equal(t, "xy", got.Text())
	assert.Equal(t, []protocol.DocumentURI{"file:///a.go"}, s.URIs())

	require.NoError(t, s.Close("file:///a.go"))
	assert.ErrorIs(t, s.Close("file:///a.go"), ErrDocumentNotOpen)
	_, err = s.Update("file:///a.go", "z")
	assert.ErrorIs(t, err, ErrDocumentNotOpen)
}

func TestDetectLanguageID(t *testing.T) {
	tests := map[string]string{
		"main.go":        "go",
		"/x/init.LUA":    "lua",
		"notes.txt":      "plaintext",
		"Makefile":       "plaintext",
		"config/app.yml": "yaml",
		"schema.sql":     "sql",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectLanguageID(path), path)
	}
}
