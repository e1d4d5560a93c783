package completion

import (
	"context"
	"sync"

	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/protocol"
)

// stubProvider returns fixed candidates and records calls.
type stubProvider struct {
	mu         sync.Mutex
	items      []*Candidate
	incomplete bool
	err        error
	calls      int
	triggers   []TriggerContext

	// hook runs before returning, e.g. to cancel the query context.
	hook func()
}

func (p *stubProvider) ProvideCandidates(_ context.Context, _ Document, _ protocol.Position, trigger TriggerContext) (*CandidateList, error) {
	p.mu.Lock()
	p.calls++
	p.triggers = append(p.triggers, trigger)
	p.mu.Unlock()

	if p.hook != nil {
		p.hook()
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.items == nil {
		return nil, nil
	}
	return &CandidateList{Items: p.items, IsIncomplete: p.incomplete}, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// resolvingProvider adds ResolveCandidate to stubProvider.
type resolvingProvider struct {
	stubProvider
	resolve func(*Candidate) (*Candidate, error)
	seen    []*Candidate
}

func (p *resolvingProvider) ResolveCandidate(_ context.Context, c *Candidate) (*Candidate, error) {
	p.seen = append(p.seen, c)
	return p.resolve(c)
}

// stubRegistry serves registrations in order.
type stubRegistry struct {
	regs []Registration
}

func (r *stubRegistry) add(id string, p Provider, triggers ...string) {
	r.regs = append(r.regs, Registration{ID: id, Provider: p, TriggerCharacters: triggers})
}

func (r *stubRegistry) remove(id string) {
	for i, reg := range r.regs {
		if reg.ID == id {
			r.regs = append(r.regs[:i], r.regs[i+1:]...)
			return
		}
	}
}

func (r *stubRegistry) ProvidersForDocument(Document) []Registration {
	return append([]Registration(nil), r.regs...)
}

func (r *stubRegistry) ProviderByID(id string) (Provider, bool) {
	for _, reg := range r.regs {
		if reg.ID == id {
			return reg.Provider, true
		}
	}
	return nil, false
}

func candidates(labels ...string) []*Candidate {
	out := make([]*Candidate, len(labels))
	for i, l := range labels {
		out[i] = &Candidate{Label: l}
	}
	return out
}

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func testDoc(text string) *document.Document {
	return document.New("file:///test.go", "go", 1, text)
}

func invokedAt(line, char int) protocol.CompletionParams {
	return protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///test.go"},
			Position:     protocol.Position{Line: line, Character: char},
		},
	}
}

func triggeredAt(line, char int, ch string) protocol.CompletionParams {
	p := invokedAt(line, char)
	p.Context = &protocol.CompletionContext{
		TriggerKind:      protocol.CompletionTriggerKindTriggerCharacter,
		TriggerCharacter: ch,
	}
	return p
}
