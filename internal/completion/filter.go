package completion

import (
	"strings"
	"unicode"

	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/fuzzy"
	"github.com/dshills/suggest/internal/protocol"
)

// shouldInvoke applies the trigger gate. Explicit invocation and
// re-triggers of incomplete lists always call the provider. A trigger
// character only does when the provider registered it, or when the cursor
// is inside a word, since identifier characters are implicit triggers.
func shouldInvoke(reg Registration, trigger TriggerContext, inWord bool) bool {
	if trigger.Kind != protocol.CompletionTriggerKindTriggerCharacter {
		return true
	}
	if inWord {
		return true
	}
	for _, ch := range reg.TriggerCharacters {
		if ch == trigger.Character {
			return true
		}
	}
	return false
}

// cursorInWord reports whether pos lies after the start of a word.
func cursorInWord(wordRange protocol.Range, ok bool, pos protocol.Position) bool {
	return ok && wordRange.Start.Line == pos.Line && wordRange.Start.Character < pos.Character
}

// filterInput is the cursor state shared by every candidate of a query.
type filterInput struct {
	linePrefix string
	cursor     int
	wordStart  int
}

// typedWord returns the text the user typed between start and the cursor,
// without leading whitespace. An empty result means there is nothing to
// match against.
func (in filterInput) typedWord(start int) string {
	wordLen := in.cursor - start
	if wordLen <= 0 {
		return ""
	}
	word := document.LastUTF16Units(in.linePrefix, wordLen)
	return strings.TrimLeftFunc(word, unicode.IsSpace)
}

// editStart returns the column where c would be inserted.
func (in filterInput) editStart(c *Candidate) int {
	if c.TextEdit != nil && c.TextEdit.Range.Start.Line == c.TextEdit.Range.End.Line {
		return c.TextEdit.Range.Start.Character
	}
	return in.wordStart
}

// score matches c against the typed word. Candidates with nothing to match
// against get fuzzy.Default without running alg.
func (in filterInput) score(alg fuzzy.Algorithm, c *Candidate) (fuzzy.Match, bool) {
	word := in.typedWord(in.editStart(c))
	if word == "" {
		return fuzzy.Default, true
	}
	return alg(word, c.FilterKey())
}

// filterBatch drops candidates that do not match and returns the survivors
// in provider order with their matches.
func filterBatch(items []*Candidate, in filterInput, threshold int) ([]*Candidate, []fuzzy.Match) {
	alg := fuzzy.ForBatch(len(items), threshold)

	kept := make([]*Candidate, 0, len(items))
	matches := make([]fuzzy.Match, 0, len(items))
	for _, c := range items {
		m, ok := in.score(alg, c)
		if !ok {
			continue
		}
		kept = append(kept, c)
		matches = append(matches, m)
	}
	return kept, matches
}
