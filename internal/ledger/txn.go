package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type readEntry struct {
	version int64
	data    json.RawMessage
}

// txn buffers writes and records the version of every document read.
type txn struct {
	backend Backend
	reads   map[Ref]readEntry
	writes  map[Ref]*Write
	order   []Ref
}

func newTxn(backend Backend) *txn {
	return &txn{
		backend: backend,
		reads:   make(map[Ref]readEntry),
		writes:  make(map[Ref]*Write),
	}
}

func (t *txn) Get(ctx context.Context, ref Ref, dst any) error {
	if w, ok := t.writes[ref]; ok {
		if w.Kind == WriteDelete {
			return ErrNotFound
		}
		return decodeInto(ref, w.Data, dst)
	}

	entry, ok := t.reads[ref]
	if !ok {
		doc, err := t.backend.Read(ctx, ref)
		switch {
		case errors.Is(err, ErrNotFound):
			entry = readEntry{}
		case err != nil:
			return err
		default:
			entry = readEntry{version: doc.Version, data: doc.Data}
		}
		t.reads[ref] = entry
	}

	if entry.version == 0 {
		return ErrNotFound
	}
	return decodeInto(ref, entry.data, dst)
}

func (t *txn) Create(ref Ref, v any) error {
	data, err := encode(ref, v)
	if err != nil {
		return err
	}
	t.put(Write{Ref: ref, Kind: WriteCreate, Data: data})
	return nil
}

func (t *txn) Set(ref Ref, v any) error {
	data, err := encode(ref, v)
	if err != nil {
		return err
	}
	kind := WriteSet
	if prev, ok := t.writes[ref]; ok && prev.Kind == WriteCreate {
		kind = WriteCreate
	}
	t.put(Write{Ref: ref, Kind: kind, Data: data})
	return nil
}

func (t *txn) Delete(ref Ref) error {
	if prev, ok := t.writes[ref]; ok && prev.Kind == WriteCreate {
		t.drop(ref)
		return nil
	}
	t.put(Write{Ref: ref, Kind: WriteDelete})
	return nil
}

func (t *txn) put(w Write) {
	if _, ok := t.writes[w.Ref]; !ok {
		t.order = append(t.order, w.Ref)
	}
	t.writes[w.Ref] = &w
}

func (t *txn) drop(ref Ref) {
	delete(t.writes, ref)
	for i, r := range t.order {
		if r == ref {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *txn) readVersions() map[Ref]int64 {
	versions := make(map[Ref]int64, len(t.reads))
	for ref, e := range t.reads {
		versions[ref] = e.version
	}
	return versions
}

func (t *txn) writeList() []Write {
	out := make([]Write, 0, len(t.order))
	for _, ref := range t.order {
		out = append(out, *t.writes[ref])
	}
	return out
}

func (t *txn) created() []Ref {
	var refs []Ref
	for _, ref := range t.order {
		if t.writes[ref].Kind == WriteCreate {
			refs = append(refs, ref)
		}
	}
	return refs
}

func encode(ref Ref, v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode %s: %w", ref, err)
	}
	return data, nil
}

func decodeInto(ref Ref, data json.RawMessage, dst any) error {
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("ledger: decode %s: %w", ref, err)
	}
	return nil
}
