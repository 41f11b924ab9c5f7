// Package docstore tracks documents an editor host has open, together with
// their unsaved text. It is the daemon-side half of the doc.open/doc.change/
// doc.close protocol.
package docstore

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/CoolSpy3/asm-code-lens/internal/core/source"
)

// Document is one open editor buffer. Lines are the split form of the last
// text pushed by the host. Dirty means the buffer differs from disk.
type Document struct {
	Path       string
	LanguageID string
	Version    int
	Dirty      bool

	text  string
	lines []string
}

func (d *Document) Text() string {
	return d.text
}

// Lines returns the buffer as lines. Callers must not mutate the slice.
func (d *Document) Lines() []string {
	return d.lines
}

// Store is a registry of open documents keyed by cleaned path.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewStore() *Store {
	return &Store{docs: map[string]*Document{}}
}

// Open registers a buffer. Opening an already-open path replaces its content
// and resets the dirty flag (the host just loaded it from disk).
func (s *Store) Open(path, languageID, text string, version int) *Document {
	key := filepath.Clean(path)
	doc := &Document{
		Path:       key,
		LanguageID: languageID,
		Version:    version,
		text:       text,
		lines:      source.SplitLines(text),
	}
	s.mu.Lock()
	s.docs[key] = doc
	s.mu.Unlock()
	return doc
}

// Change replaces the buffer text and marks it dirty. Returns false when the
// path was never opened.
func (s *Store) Change(path, text string, version int) (*Document, bool) {
	if s == nil {
		return nil, false
	}
	key := filepath.Clean(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, false
	}
	doc.text = text
	doc.lines = source.SplitLines(text)
	doc.Version = version
	doc.Dirty = true
	return doc, true
}

// MarkSaved clears the dirty flag after the host wrote the buffer to disk.
func (s *Store) MarkSaved(path string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[filepath.Clean(path)]
	if ok {
		doc.Dirty = false
	}
	return ok
}

func (s *Store) Close(path string) bool {
	if s == nil {
		return false
	}
	key := filepath.Clean(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return false
	}
	delete(s.docs, key)
	return true
}

func (s *Store) Get(path string) (*Document, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[filepath.Clean(path)]
	return doc, ok
}

// Lookup implements source.Overlay: open buffers shadow the disk content
// whether dirty or not.
func (s *Store) Lookup(path string) ([]string, bool) {
	doc, ok := s.Get(path)
	if !ok {
		return nil, false
	}
	return doc.lines, true
}

// DirtyLines returns the buffer only when it is open, unsaved and of the
// wanted language. Grep prefers this over disk; a clean buffer reads the
// same as its file.
func (s *Store) DirtyLines(path, languageID string) ([]string, bool) {
	doc, ok := s.Get(path)
	if !ok || !doc.Dirty || doc.LanguageID != languageID {
		return nil, false
	}
	return doc.lines, true
}

// All returns the open documents sorted by path.
func (s *Store) All() []*Document {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
