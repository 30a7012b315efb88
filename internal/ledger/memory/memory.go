// Package memory implements ledger.Backend in-process; intended for tests and
// local development.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"stream_ledger/internal/ledger"
)

type entry struct {
	data    json.RawMessage
	version int64
}

// Store is an in-memory versioned document map.
type Store struct {
	mu     sync.RWMutex
	docs   map[ledger.Ref]*entry
	seq    int64
	closed bool
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[ledger.Ref]*entry)}
}

// Read returns a copy of the stored document.
func (s *Store) Read(_ context.Context, ref ledger.Ref) (ledger.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.Document{}, ledger.ErrClosed
	}
	e, ok := s.docs[ref]
	if !ok {
		return ledger.Document{}, ledger.ErrNotFound
	}
	return ledger.Document{Ref: ref, Data: clone(e.data), Version: e.version}, nil
}

// Commit validates reads and applies writes under the write lock.
func (s *Store) Commit(_ context.Context, reads map[ledger.Ref]int64, writes []ledger.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrClosed
	}

	for ref, want := range reads {
		if s.version(ref) != want {
			return ledger.ErrConflict
		}
	}
	for _, w := range writes {
		if w.Kind == ledger.WriteCreate && s.version(w.Ref) != 0 {
			return ledger.ErrAlreadyExists
		}
	}

	for _, w := range writes {
		switch w.Kind {
		case ledger.WriteDelete:
			delete(s.docs, w.Ref)
		case ledger.WriteSet, ledger.WriteCreate:
			// store-wide sequence so a recreated document never reuses a version
			s.seq++
			s.docs[w.Ref] = &entry{data: clone(w.Data), version: s.seq}
		}
	}
	return nil
}

// List scans the collection and applies filters in process.
func (s *Store) List(_ context.Context, collection string, filters []ledger.Filter) ([]ledger.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.ErrClosed
	}

	var out []ledger.Document
	for ref, e := range s.docs {
		if ref.Collection != collection {
			continue
		}
		if !ledger.Match(e.data, filters) {
			continue
		}
		out = append(out, ledger.Document{Ref: ref, Data: clone(e.data), Version: e.version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.ErrClosed
	}
	return nil
}

func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Store) version(ref ledger.Ref) int64 {
	if e, ok := s.docs[ref]; ok {
		return e.version
	}
	return 0
}

func clone(b json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), b...)
}
