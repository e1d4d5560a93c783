// Package document provides read access to open text documents: line text,
// ranges, and word detection, all addressed with LSP positions whose
// character offsets are UTF-16 code units.
package document

import (
	"strings"
	"unicode"

	"github.com/dshills/suggest/internal/protocol"
)

// Document is an immutable snapshot of a text document.
type Document struct {
	uri        protocol.DocumentURI
	languageID string
	version    int
	content    string
	lines      []lineInfo
}

// lineInfo stores the byte span of a line, excluding the line terminator.
type lineInfo struct {
	byteOffset int
	byteLen    int
}

// New creates a document snapshot.
func New(uri protocol.DocumentURI, languageID string, version int, content string) *Document {
	d := &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		content:    content,
	}
	d.buildLineIndex()
	return d
}

func (d *Document) buildLineIndex() {
	lineStart := 0
	for i := 0; i < len(d.content); i++ {
		if d.content[i] == '\n' {
			end := i
			if end > lineStart && d.content[end-1] == '\r' {
				end--
			}
			d.lines = append(d.lines, lineInfo{byteOffset: lineStart, byteLen: end - lineStart})
			lineStart = i + 1
		}
	}
	d.lines = append(d.lines, lineInfo{byteOffset: lineStart, byteLen: len(d.content) - lineStart})
}

// URI returns the document URI.
func (d *Document) URI() protocol.DocumentURI { return d.uri }

// LanguageID returns the language identifier (e.g. "go").
func (d *Document) LanguageID() string { return d.languageID }

// Version returns the document version.
func (d *Document) Version() int { return d.version }

// Text returns the full content.
func (d *Document) Text() string { return d.content }

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int { return len(d.lines) }

// LineText returns the content of a line without its terminator.
// Out of range lines return "".
func (d *Document) LineText(line int) string {
	if line < 0 || line >= len(d.lines) {
		return ""
	}
	li := d.lines[line]
	return d.content[li.byteOffset : li.byteOffset+li.byteLen]
}

// OffsetAt converts a position to a byte offset, clamping to the document.
func (d *Document) OffsetAt(pos protocol.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lines) {
		return len(d.content)
	}
	li := d.lines[pos.Line]
	lineText := d.content[li.byteOffset : li.byteOffset+li.byteLen]
	return li.byteOffset + utf16ToByteOffset(lineText, pos.Character)
}

// PositionAt converts a byte offset to a position.
func (d *Document) PositionAt(offset int) protocol.Position {
	if offset <= 0 {
		return protocol.Position{}
	}
	if offset > len(d.content) {
		offset = len(d.content)
	}
	line := 0
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].byteOffset <= offset {
			line = i
			break
		}
	}
	li := d.lines[line]
	col := offset - li.byteOffset
	if col > li.byteLen {
		col = li.byteLen
	}
	return protocol.Position{
		Line:      line,
		Character: byteToUTF16Offset(d.content[li.byteOffset:li.byteOffset+li.byteLen], col),
	}
}

// TextInRange returns the text covered by rng.
func (d *Document) TextInRange(rng protocol.Range) string {
	start := d.OffsetAt(rng.Start)
	end := d.OffsetAt(rng.End)
	if end < start {
		return ""
	}
	return d.content[start:end]
}

// LinePrefix returns the text of pos.Line up to pos.Character.
func (d *Document) LinePrefix(pos protocol.Position) string {
	return d.TextInRange(protocol.Range{
		Start: protocol.Position{Line: pos.Line},
		End:   pos,
	})
}

// WordRangeAtPosition returns the range of the word touching pos. A word
// touches pos when pos lies inside it or directly at either end. It reports
// false when no word character is adjacent to pos.
func (d *Document) WordRangeAtPosition(pos protocol.Position) (protocol.Range, bool) {
	if pos.Line < 0 || pos.Line >= len(d.lines) {
		return protocol.Range{}, false
	}
	runes := []rune(d.LineText(pos.Line))
	idx := utf16ToRuneOffset(string(runes), pos.Character)
	if idx > len(runes) {
		idx = len(runes)
	}

	start := idx
	for start > 0 && IsWordChar(runes[start-1]) {
		start--
	}
	end := idx
	for end < len(runes) && IsWordChar(runes[end]) {
		end++
	}
	if start == end {
		return protocol.Range{}, false
	}

	line := string(runes)
	return protocol.Range{
		Start: protocol.Position{Line: pos.Line, Character: runeToUTF16Offset(line, start)},
		End:   protocol.Position{Line: pos.Line, Character: runeToUTF16Offset(line, end)},
	}, true
}

// Words returns every distinct word in the document in first-seen order.
func (d *Document) Words() []string {
	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.FieldsFunc(d.content, func(r rune) bool { return !IsWordChar(r) }) {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// IsWordChar reports whether r is part of an identifier.
func IsWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsWordString reports whether s is non-empty and made only of word characters.
func IsWordString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsWordChar(r) {
			return false
		}
	}
	return true
}
