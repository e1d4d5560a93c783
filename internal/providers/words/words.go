// Package words offers the identifiers of the current document as
// completion candidates.
package words

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/protocol"
)

// ID is the registration id of the provider.
const ID = "words"

// DefaultMinLength is the shortest word offered.
const DefaultMinLength = 3

// Source gives access to document text. *document.Document implements it.
type Source interface {
	completion.Document
	Text() string
}

// Provider suggests words found in the document.
type Provider struct {
	minLength int
}

// New creates a provider. Words shorter than minLength runes are skipped;
// a value below 1 selects DefaultMinLength.
func New(minLength int) *Provider {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	return &Provider{minLength: minLength}
}

// Data is attached to every candidate.
type Data struct {
	Occurrences int `json:"occurrences"`
}

// ProvideCandidates implements completion.Provider. Words are offered in
// first-seen order; the word under the cursor is not offered back.
func (p *Provider) ProvideCandidates(ctx context.Context, doc completion.Document, pos protocol.Position, _ completion.TriggerContext) (*completion.CandidateList, error) {
	src, ok := doc.(Source)
	if !ok {
		return nil, nil
	}

	current := ""
	if rng, ok := doc.WordRangeAtPosition(pos); ok {
		current = doc.TextInRange(rng)
	}

	words, counts := scan(src.Text())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []*completion.Candidate
	for _, w := range words {
		if utf8.RuneCountInString(w) < p.minLength || !startsWithLetter(w) {
			continue
		}
		n := counts[w]
		if w == current {
			// The word being typed only counts when it also appears elsewhere.
			if n < 2 {
				continue
			}
			n--
		}
		items = append(items, &completion.Candidate{
			Label:        w,
			Kind:         protocol.CompletionItemKindText,
			LabelDetails: &protocol.CompletionItemLabelDetails{Description: "buffer"},
			NeedsResolve: true,
			Data:         Data{Occurrences: n},
		})
	}
	return &completion.CandidateList{Items: items}, nil
}

// ResolveCandidate implements completion.Resolver. It fills in how often the
// word occurs in the document.
func (p *Provider) ResolveCandidate(_ context.Context, item *completion.Candidate) (*completion.Candidate, error) {
	d, ok := item.Data.(Data)
	if !ok || !item.NeedsResolve {
		return nil, nil
	}
	out := *item
	out.NeedsResolve = false
	if d.Occurrences == 1 {
		out.Detail = "1 occurrence in buffer"
	} else {
		out.Detail = fmt.Sprintf("%d occurrences in buffer", d.Occurrences)
	}
	return &out, nil
}

// scan returns the distinct words of text in first-seen order along with
// their counts.
func scan(text string) ([]string, map[string]int) {
	counts := make(map[string]int)
	var words []string
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !document.IsWordChar(r) }) {
		if counts[w] == 0 {
			words = append(words, w)
		}
		counts[w]++
	}
	return words, counts
}

func startsWithLetter(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsLetter(r)
}

var (
	_ completion.Provider = (*Provider)(nil)
	_ completion.Resolver = (*Provider)(nil)
)
