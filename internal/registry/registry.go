// Package registry keeps the completion providers known to the process and
// decides which of them apply to a document.
//
// Providers are returned in registration order. That order is the merge
// order of the completion list, so it is preserved across Unregister calls.
package registry

import (
	"errors"
	"fmt"
	stdpath "path"
	"strings"
	"sync"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/protocol"
)

// Errors returned by Registry.
var (
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrInvalidProvider   = errors.New("invalid provider registration")
)

// Selector restricts a provider to some documents. The zero Selector
// matches every document.
type Selector struct {
	// Languages lists language ids. Empty or containing "*" matches all.
	Languages []string

	// Pattern is a glob matched against the document path, first against
	// its base name and then the full path. Empty matches all.
	Pattern string
}

// Matches reports whether doc is selected.
func (s Selector) Matches(doc completion.Document) bool {
	return s.matchesLanguage(doc.LanguageID()) && s.matchesPath(doc.URI())
}

func (s Selector) matchesLanguage(lang string) bool {
	if len(s.Languages) == 0 {
		return true
	}
	for _, l := range s.Languages {
		if l == "*" || strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}

func (s Selector) matchesPath(uri protocol.DocumentURI) bool {
	if s.Pattern == "" {
		return true
	}
	filePath := protocol.URIToFilePath(uri)
	filePath = strings.ReplaceAll(filePath, "\\", "/")

	baseName := filePath[strings.LastIndex(filePath, "/")+1:]
	if matched, _ := stdpath.Match(s.Pattern, baseName); matched {
		return true
	}
	matched, _ := stdpath.Match(s.Pattern, filePath)
	return matched
}

// Entry is one registered provider.
type Entry struct {
	ID                string
	Provider          completion.Provider
	TriggerCharacters []string
	Selector          Selector
}

// Registry holds providers in registration order. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int // index into entries
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID: make(map[string]int),
	}
}

// Register appends e. Ids are unique.
func (r *Registry) Register(e Entry) error {
	if e.ID == "" || e.Provider == nil {
		return fmt.Errorf("%w: id %q", ErrInvalidProvider, e.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, e.ID)
	}
	e.TriggerCharacters = append([]string(nil), e.TriggerCharacters...)
	r.byID[e.ID] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Unregister removes the provider with id. It returns false if there was none.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return false
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.entries); i++ {
		r.byID[r.entries[i].ID] = i
	}
	return true
}

// ProvidersForDocument implements completion.ProviderRegistry.
func (r *Registry) ProvidersForDocument(doc completion.Document) []completion.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var regs []completion.Registration
	for _, e := range r.entries {
		if !e.Selector.Matches(doc) {
			continue
		}
		regs = append(regs, completion.Registration{
			ID:                e.ID,
			Provider:          e.Provider,
			TriggerCharacters: e.TriggerCharacters,
		})
	}
	return regs
}

// ProviderByID implements completion.ProviderRegistry.
func (r *Registry) ProviderByID(id string) (completion.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.entries[idx].Provider, true
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Ensure Registry implements completion.ProviderRegistry.
var _ completion.ProviderRegistry = (*Registry)(nil)
