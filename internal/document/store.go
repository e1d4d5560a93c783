package document

import (
	"errors"
	"sort"
	"sync"

	"github.com/dshills/suggest/internal/protocol"
)

// Errors returned by Store.
var (
	// ErrDocumentNotOpen indicates the document is not open.
	ErrDocumentNotOpen = errors.New("document not open")

	// ErrDocumentAlreadyOpen indicates the document is already open.
	ErrDocumentAlreadyOpen = errors.New("document already open")
)

// Store tracks the open documents of a session. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*Document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[protocol.DocumentURI]*Document)}
}

// Open registers a document with its initial content.
func (s *Store) Open(uri protocol.DocumentURI, languageID, content string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; ok {
		return nil, ErrDocumentAlreadyOpen
	}
	doc := New(uri, languageID, 1, content)
	s.docs[uri] = doc
	return doc, nil
}

// Update replaces the content of an open document and bumps its version.
func (s *Store) Update(uri protocol.DocumentURI, content string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.docs[uri]
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	doc := New(uri, prev.languageID, prev.version+1, content)
	s.docs[uri] = doc
	return doc, nil
}

// Close forgets a document.
func (s *Store) Close(uri protocol.DocumentURI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; !ok {
		return ErrDocumentNotOpen
	}
	delete(s.docs, uri)
	return nil
}

// Get returns the current snapshot of a document.
func (s *Store) Get(uri protocol.DocumentURI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// URIs returns the URIs of all open documents in sorted order.
func (s *Store) URIs() []protocol.DocumentURI {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]protocol.DocumentURI, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Slice(uris, func(i, j int) bool { return uris[i] < uris[j] })
	return uris
}
