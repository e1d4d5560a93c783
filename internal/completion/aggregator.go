package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/suggest/internal/command"
	"github.com/dshills/suggest/internal/fuzzy"
	"github.com/dshills/suggest/internal/itemcache"
	"github.com/dshills/suggest/internal/logging"
	"github.com/dshills/suggest/internal/protocol"
	"github.com/dshills/suggest/internal/telemetry"
)

// AcceptCommand is the command attached to every returned item. Running it
// notifies selection observers and forwards to the candidate's own command.
const AcceptCommand = "suggest.completion.accept"

// Aggregator merges candidates from registered providers.
type Aggregator struct {
	registry  ProviderRegistry
	cache     *itemcache.Cache[*Candidate]
	settings  Settings
	converter Converter
	log       *logging.Logger
	inst      *telemetry.Instruments

	mu        sync.RWMutex
	executor  command.Executor
	observers []func(Selection)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConverter replaces DefaultConverter.
func WithConverter(c Converter) Option {
	return func(a *Aggregator) {
		if c != nil {
			a.converter = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// WithInstruments sets the telemetry instruments.
func WithInstruments(inst *telemetry.Instruments) Option {
	return func(a *Aggregator) {
		a.inst = inst
	}
}

// WithExecutor sets the executor that runs forwarded candidate commands.
// RegisterCommands sets it as well.
func WithExecutor(e command.Executor) Option {
	return func(a *Aggregator) {
		a.executor = e
	}
}

// New creates an aggregator. The cache is shared with no one else and its
// lifetime is owned by the caller.
func New(registry ProviderRegistry, cache *itemcache.Cache[*Candidate], settings Settings, opts ...Option) *Aggregator {
	if cache == nil {
		cache = itemcache.New[*Candidate](itemcache.DefaultCapacity)
	}
	if settings == nil {
		settings = StaticSettings{}
	}
	a := &Aggregator{
		registry:  registry,
		cache:     cache,
		settings:  settings,
		converter: DefaultConverter{},
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache returns the item cache.
func (a *Aggregator) Cache() *itemcache.Cache[*Candidate] {
	return a.cache
}

// OnSelect registers fn to run whenever AcceptCommand runs.
func (a *Aggregator) OnSelect(fn func(Selection)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// batch is the surviving output of one provider.
type batch struct {
	providerID string
	items      []*Candidate
	matches    []fuzzy.Match // nil when fuzzy filtering did not run
}

// Query collects candidates for params from every applicable provider.
// A provider error aborts the query and is returned as *ProviderError.
// Cancellation returns the context error; batches are only stored once
// every provider has answered.
func (a *Aggregator) Query(ctx context.Context, doc Document, params protocol.CompletionParams) (*protocol.CompletionList, error) {
	trigger := triggerContextFrom(params.Context)
	h, ctx := a.inst.StartQuery(ctx, string(doc.URI()), trigger.Kind.String())
	start := time.Now()

	list, trimmed, err := a.query(ctx, h, doc, params.Position, trigger)
	if err != nil {
		h.End(0, false, false, err)
		return nil, err
	}
	h.End(len(list.Items), list.IsIncomplete, trimmed, nil)

	a.log.Debug().
		Str("uri", string(doc.URI())).
		Str("trigger", trigger.Kind.String()).
		Int("items", len(list.Items)).
		Bool("incomplete", list.IsIncomplete).
		Dur("elapsed", time.Since(start)).
		Msg("completion query")
	return list, nil
}

func (a *Aggregator) query(ctx context.Context, h *telemetry.QueryHandle, doc Document, pos protocol.Position, trigger TriggerContext) (*protocol.CompletionList, bool, error) {
	fuzzyMatch := a.settings.EnableServerSideFuzzyMatch()
	limit := a.settings.EntriesLimit()
	threshold := a.settings.AggressiveThreshold()

	wordRange, hasWord := doc.WordRangeAtPosition(pos)
	inWord := cursorInWord(wordRange, hasWord, pos)

	var in filterInput
	filtering := fuzzyMatch && hasWord
	if filtering {
		in = filterInput{
			linePrefix: doc.TextInRange(protocol.Range{
				Start: protocol.Position{Line: pos.Line},
				End:   pos,
			}),
			cursor:    pos.Character,
			wordStart: wordRange.Start.Character,
		}
	}

	var batches []batch
	incomplete := false
	for _, reg := range a.registry.ProvidersForDocument(doc) {
		if err := ctx.Err(); err != nil {
			return nil, false, fmt.Errorf("completion query: %w", err)
		}
		if !shouldInvoke(reg, trigger, inWord) {
			a.log.Debug().Str("provider", reg.ID).Str("char", trigger.Character).Msg("provider skipped by trigger gate")
			continue
		}

		h.ProviderInvoked(reg.ID)
		res, err := reg.Provider.ProvideCandidates(ctx, doc, pos, trigger)
		if err != nil {
			return nil, false, &ProviderError{ProviderID: reg.ID, Op: "provide", Err: err}
		}
		items := compact(res)
		if len(items) == 0 {
			continue
		}
		if res.IsIncomplete {
			incomplete = true
		}

		b := batch{providerID: reg.ID, items: items}
		if filtering {
			b.items, b.matches = filterBatch(items, in, threshold)
			if len(b.items) == 0 {
				continue
			}
		}
		a.log.Debug().Str("provider", reg.ID).Int("items", len(b.items)).Msg("provider returned items")
		batches = append(batches, b)
	}

	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("completion query: %w", err)
	}

	items, err := a.encode(batches)
	if err != nil {
		return nil, false, err
	}

	trimmed := false
	if limit > 0 && len(items) > limit {
		a.log.Debug().Int("items", len(items)).Int("limit", limit).Msg("trimming completion list")
		items = Trim(items, limit)
		incomplete = true
		trimmed = true
	}
	return &protocol.CompletionList{IsIncomplete: incomplete, Items: items}, trimmed, nil
}

// encode stores each batch as one cache slot and converts its items with
// their handles attached.
func (a *Aggregator) encode(batches []batch) ([]protocol.CompletionItem, error) {
	total := 0
	for _, b := range batches {
		total += len(b.items)
	}

	out := make([]protocol.CompletionItem, 0, total)
	for _, b := range batches {
		slot := a.cache.Store(b.items)
		for i, c := range b.items {
			handle := Handle{ProviderID: b.providerID, Index: i, Slot: slot}
			if b.matches != nil {
				m := b.matches[i]
				handle.Match = &m
			}
			data, err := handle.Encode()
			if err != nil {
				return nil, err
			}
			item := a.converter.Convert(c, data)
			item.Command = acceptCommand(c, data)
			out = append(out, item)
		}
	}
	return out, nil
}

// acceptCommand builds the AcceptCommand reference for c.
func acceptCommand(c *Candidate, data []byte) *protocol.Command {
	title := ""
	if c.Command != nil {
		title = c.Command.Title
	}
	return &protocol.Command{
		Title:     title,
		Command:   AcceptCommand,
		Arguments: []any{rawArg(data)},
	}
}

// compact drops nil candidates.
func compact(res *CandidateList) []*Candidate {
	if res == nil || len(res.Items) == 0 {
		return nil
	}
	items := make([]*Candidate, 0, len(res.Items))
	for _, c := range res.Items {
		if c != nil {
			items = append(items, c)
		}
	}
	return items
}
