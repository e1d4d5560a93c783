package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/suggest/internal/fuzzy"
	"github.com/dshills/suggest/internal/protocol"
)

// Errors returned by the completion package.
var (
	// ErrInvalidHandle indicates item data that does not hold a well formed handle.
	ErrInvalidHandle = errors.New("invalid completion item handle")
)

// Candidate is a completion suggestion as produced by a provider, before
// wire conversion. Providers own candidates; the aggregator keeps a
// reference for the lifetime of one query plus cache retention.
type Candidate struct {
	Label        string
	LabelDetails *protocol.CompletionItemLabelDetails
	Kind         protocol.CompletionItemKind
	Detail       string

	Documentation *protocol.MarkupContent

	// SortText orders the candidate; Label is used when empty.
	SortText string

	// FilterText is matched against the typed word; Label is used when empty.
	FilterText string

	InsertText          string
	InsertTextFormat    protocol.InsertTextFormat
	TextEdit            *protocol.TextEdit
	AdditionalTextEdits []protocol.TextEdit
	CommitCharacters    []string
	Preselect           bool

	// Command runs after the candidate is accepted.
	Command *protocol.Command

	// NeedsResolve marks candidates whose expensive fields are filled in
	// lazily by the provider's Resolver.
	NeedsResolve bool

	// Data is provider private state. It travels in the wire item's data
	// when it encodes to a JSON object.
	Data any
}

// SortKey returns SortText, falling back to Label.
func (c *Candidate) SortKey() string {
	if c.SortText != "" {
		return c.SortText
	}
	return c.Label
}

// FilterKey returns FilterText, falling back to Label.
func (c *Candidate) FilterKey() string {
	if c.FilterText != "" {
		return c.FilterText
	}
	return c.Label
}

// CandidateList is the result of one provider invocation.
type CandidateList struct {
	Items []*Candidate

	// IsIncomplete asks the client to query again as the user keeps typing.
	IsIncomplete bool
}

// Items wraps candidates into a complete list.
func Items(items ...*Candidate) *CandidateList {
	return &CandidateList{Items: items}
}

// TriggerContext tells a provider why completion was invoked.
type TriggerContext struct {
	Kind      protocol.CompletionTriggerKind
	Character string
}

// triggerContextFrom builds a TriggerContext from request params. A
// missing context means explicit invocation.
func triggerContextFrom(ctx *protocol.CompletionContext) TriggerContext {
	if ctx == nil {
		return TriggerContext{Kind: protocol.CompletionTriggerKindInvoked}
	}
	return TriggerContext{Kind: ctx.TriggerKind, Character: ctx.TriggerCharacter}
}

// Document is the read access the aggregator and providers need.
type Document interface {
	URI() protocol.DocumentURI
	LanguageID() string
	WordRangeAtPosition(pos protocol.Position) (protocol.Range, bool)
	TextInRange(rng protocol.Range) string
}

// Provider supplies candidates for a document position.
//
// A nil list and an empty list both mean the provider had nothing to offer.
// Returned errors abort the whole query.
type Provider interface {
	ProvideCandidates(ctx context.Context, doc Document, pos protocol.Position, trigger TriggerContext) (*CandidateList, error)
}

// Resolver is implemented by providers that fill in candidate fields lazily.
// Returning nil keeps the item unchanged.
type Resolver interface {
	ResolveCandidate(ctx context.Context, item *Candidate) (*Candidate, error)
}

// Registration is a provider applicable to a document.
type Registration struct {
	ID                string
	Provider          Provider
	TriggerCharacters []string
}

// ProviderRegistry discovers providers.
type ProviderRegistry interface {
	// ProvidersForDocument returns the providers for doc in registration order.
	ProvidersForDocument(doc Document) []Registration

	// ProviderByID looks up a provider that may since have been removed.
	ProviderByID(id string) (Provider, bool)
}

// Settings is the configuration read at the start of every query.
type Settings interface {
	// EnableServerSideFuzzyMatch turns fuzzy filtering and scoring on.
	EnableServerSideFuzzyMatch() bool

	// EntriesLimit is the maximum number of returned items; 0 means no limit.
	EntriesLimit() int

	// AggressiveThreshold is the batch size above which the cheaper fuzzy
	// algorithm is used.
	AggressiveThreshold() int
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	FuzzyMatch bool
	Limit      int
	Threshold  int
}

// EnableServerSideFuzzyMatch implements Settings.
func (s StaticSettings) EnableServerSideFuzzyMatch() bool { return s.FuzzyMatch }

// EntriesLimit implements Settings.
func (s StaticSettings) EntriesLimit() int { return s.Limit }

// AggressiveThreshold implements Settings.
func (s StaticSettings) AggressiveThreshold() int {
	if s.Threshold < 1 {
		return fuzzy.DefaultAggressiveThreshold
	}
	return s.Threshold
}

// Selection describes an accepted completion item.
type Selection struct {
	Handle Handle
	Item   *Candidate
}

// ProviderError wraps a failure returned by a provider.
type ProviderError struct {
	ProviderID string
	Op         string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.ProviderID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
