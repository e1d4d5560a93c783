// Package keywords offers language keywords loaded from YAML keyword sets.
//
// A keyword set file looks like:
//
//	languages: [go]
//	keywords:
//	  - label: func
//	    detail: function declaration
//	    insert: "func ${1:name}($2) {\n\t$0\n}"
//	    documentation: |
//	      Markdown shown when the item is resolved.
//	    command: { title: Organize, command: imports.organize }
//
// Sets for Go and Lua are built in; user files add to them.
package keywords

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/protocol"
)

// ID is the registration id of the provider.
const ID = "keywords"

//go:embed defaults/*.yaml
var defaults embed.FS

// Keyword is one entry of a keyword set.
type Keyword struct {
	Label         string            `yaml:"label"`
	Kind          string            `yaml:"kind"`
	Detail        string            `yaml:"detail"`
	Documentation string            `yaml:"documentation"`
	Insert        string            `yaml:"insert"`
	Command       *protocol.Command `yaml:"command"`
}

// Set is the content of one keyword file.
type Set struct {
	Languages []string  `yaml:"languages"`
	Keywords  []Keyword `yaml:"keywords"`
}

// Data is attached to every candidate.
type Data struct {
	Language string `json:"language"`
}

// Provider offers keywords for the document language.
type Provider struct {
	mu     sync.RWMutex
	byLang map[string][]Keyword
}

// New creates a provider with the built-in sets.
func New() (*Provider, error) {
	p := &Provider{byLang: make(map[string][]Keyword)}

	entries, err := fs.ReadDir(defaults, "defaults")
	if err != nil {
		return nil, fmt.Errorf("read built-in keyword sets: %w", err)
	}
	for _, e := range entries {
		data, err := defaults.ReadFile(path.Join("defaults", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read built-in keyword set %s: %w", e.Name(), err)
		}
		set, err := ParseSet(data)
		if err != nil {
			return nil, fmt.Errorf("built-in keyword set %s: %w", e.Name(), err)
		}
		p.Add(set)
	}
	return p, nil
}

// ParseSet decodes a keyword set. Unknown fields are rejected.
func ParseSet(data []byte) (Set, error) {
	var set Set
	if len(bytes.TrimSpace(data)) == 0 {
		return set, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return set, nil
		}
		return Set{}, fmt.Errorf("decode keyword set: %w", err)
	}
	if len(set.Keywords) > 0 && len(set.Languages) == 0 {
		return Set{}, errors.New("keyword set without languages")
	}
	for i, kw := range set.Keywords {
		if strings.TrimSpace(kw.Label) == "" {
			return Set{}, fmt.Errorf("keyword %d has no label", i+1)
		}
	}
	return set, nil
}

// LoadFile adds the set in path. A missing file is not an error.
func (p *Provider) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read keyword set %s: %w", path, err)
	}
	set, err := ParseSet(data)
	if err != nil {
		return fmt.Errorf("keyword set %s: %w", path, err)
	}
	p.Add(set)
	return nil
}

// Add merges set into the provider. A keyword already known for a language
// is replaced.
func (p *Provider) Add(set Set) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, lang := range set.Languages {
		lang = strings.ToLower(lang)
		existing := p.byLang[lang]
		for _, kw := range set.Keywords {
			replaced := false
			for i := range existing {
				if existing[i].Label == kw.Label {
					existing[i] = kw
					replaced = true
					break
				}
			}
			if !replaced {
				existing = append(existing, kw)
			}
		}
		p.byLang[lang] = existing
	}
}

// Languages returns the number of keywords known per language.
func (p *Provider) Languages() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]int, len(p.byLang))
	for lang, kws := range p.byLang {
		out[lang] = len(kws)
	}
	return out
}

func (p *Provider) lookup(lang, label string) (Keyword, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, kw := range p.byLang[lang] {
		if kw.Label == label {
			return kw, true
		}
	}
	return Keyword{}, false
}

// ProvideCandidates implements completion.Provider.
func (p *Provider) ProvideCandidates(_ context.Context, doc completion.Document, _ protocol.Position, _ completion.TriggerContext) (*completion.CandidateList, error) {
	lang := strings.ToLower(doc.LanguageID())

	p.mu.RLock()
	kws := p.byLang[lang]
	p.mu.RUnlock()

	if len(kws) == 0 {
		return nil, nil
	}

	items := make([]*completion.Candidate, 0, len(kws))
	for _, kw := range kws {
		c := &completion.Candidate{
			Label:        kw.Label,
			Kind:         protocol.CompletionItemKindKeyword,
			Detail:       kw.Detail,
			NeedsResolve: kw.Documentation != "",
			Data:         Data{Language: lang},
		}
		if kw.Insert != "" {
			c.InsertText = kw.Insert
			c.InsertTextFormat = protocol.InsertTextFormatSnippet
			c.Kind = protocol.CompletionItemKindSnippet
			c.LabelDetails = &protocol.CompletionItemLabelDetails{Detail: " snippet"}
		}
		if kw.Kind != "" {
			c.Kind = protocol.ParseCompletionItemKind(kw.Kind)
		}
		if kw.Command != nil && kw.Command.Command != "" {
			cmd := *kw.Command
			c.Command = &cmd
		}
		items = append(items, c)
	}
	return &completion.CandidateList{Items: items}, nil
}

// ResolveCandidate implements completion.Resolver. It fills in the
// documentation of the keyword.
func (p *Provider) ResolveCandidate(_ context.Context, item *completion.Candidate) (*completion.Candidate, error) {
	d, ok := item.Data.(Data)
	if !ok {
		return nil, nil
	}
	kw, ok := p.lookup(d.Language, item.Label)
	if !ok || kw.Documentation == "" {
		return nil, nil
	}
	out := *item
	out.NeedsResolve = false
	out.Documentation = &protocol.MarkupContent{
		Kind:  protocol.MarkupKindMarkdown,
		Value: strings.TrimSpace(kw.Documentation),
	}
	return &out, nil
}

var (
	_ completion.Provider = (*Provider)(nil)
	_ completion.Resolver = (*Provider)(nil)
)
