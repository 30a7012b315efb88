// Package ledger is a transactional document store with optimistic
// concurrency: a transaction body reads versioned documents, buffers its
// writes, and commits only if every document it read is still at the version
// it saw. Stale read sets are retried transparently.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("ledger: document not found")
	ErrAlreadyExists = errors.New("ledger: document already exists")
	ErrConflict      = errors.New("ledger: read set is stale")
	ErrContention    = errors.New("ledger: transaction retries exhausted")
	ErrClosed        = errors.New("ledger: store closed")
)

// Ref addresses one document.
type Ref struct {
	Collection string
	ID         string
}

// Doc is shorthand for a Ref literal.
func Doc(collection, id string) Ref {
	return Ref{Collection: collection, ID: id}
}

func (r Ref) String() string {
	return r.Collection + "/" + r.ID
}

// Less orders refs by collection then id. Backends lock in this order.
func (r Ref) Less(o Ref) bool {
	if r.Collection != o.Collection {
		return r.Collection < o.Collection
	}
	return r.ID < o.ID
}

// Document is a stored JSON value with its version. Version 0 means absent.
type Document struct {
	Ref     Ref
	Data    json.RawMessage
	Version int64
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("ledger: decode %s: %w", d.Ref, err)
	}
	return nil
}

// WriteKind is the kind of buffered mutation.
type WriteKind int

const (
	WriteSet WriteKind = iota + 1
	WriteCreate
	WriteDelete
)

// Write is one buffered mutation handed to Backend.Commit.
type Write struct {
	Ref  Ref
	Kind WriteKind
	Data json.RawMessage
}

// FilterOp is a List predicate operator.
type FilterOp string

const (
	// OpEq matches documents whose JSON field equals the value.
	OpEq FilterOp = "eq"
	// OpBefore matches documents whose JSON timestamp field is at or before the value.
	OpBefore FilterOp = "before"
)

// Filter is a predicate on a top-level JSON field.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func Before(field string, t time.Time) Filter {
	return Filter{Field: field, Op: OpBefore, Value: t}
}

// Backend is the storage engine behind a Store.
type Backend interface {
	// Read returns the current document or ErrNotFound.
	Read(ctx context.Context, ref Ref) (Document, error)
	// Commit applies writes atomically if every ref in reads is still at the
	// recorded version (0 = absent). Returns ErrConflict when it is not, and
	// ErrAlreadyExists when a WriteCreate targets an existing document.
	Commit(ctx context.Context, reads map[Ref]int64, writes []Write) error
	// List returns documents of collection matching all filters, ordered by id.
	List(ctx context.Context, collection string, filters []Filter) ([]Document, error)
	Ping(ctx context.Context) error
	Close()
}

// Tx is the view a transaction body has of the store.
type Tx interface {
	// Get decodes the document into dst, or returns ErrNotFound.
	Get(ctx context.Context, ref Ref, dst any) error
	// Create fails the commit with ErrAlreadyExists if the document exists.
	Create(ref Ref, v any) error
	Set(ref Ref, v any) error
	Delete(ref Ref) error
}

// TxFunc is a transaction body. It may run more than once.
type TxFunc func(ctx context.Context, tx Tx) error
