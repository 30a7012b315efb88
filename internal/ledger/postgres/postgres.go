// Package postgres implements ledger.Backend on a single JSONB document table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes that mean a concurrent transaction won.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

type Store struct {
	db *pgxpool.Pool
}

// Connect opens a pool and pings it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("database connected")
	return New(pool), nil
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Read returns the current document or ledger.ErrNotFound.
func (s *Store) Read(ctx context.Context, ref ledger.Ref) (ledger.Document, error) {
	var (
		data    []byte
		version int64
	)
	err := s.db.QueryRow(ctx, `
		SELECT data, version FROM documents WHERE collection = $1 AND id = $2
	`, ref.Collection, ref.ID).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Document{}, ledger.ErrNotFound
		}
		return ledger.Document{}, err
	}
	return ledger.Document{Ref: ref, Data: data, Version: version}, nil
}

// Commit locks the read and write sets in key order, validates versions and
// applies the writes in one database transaction.
func (s *Store) Commit(ctx context.Context, reads map[ledger.Ref]int64, writes []ledger.Write) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock rows in a stable order to prevent deadlocks
	keys := make([]ledger.Ref, 0, len(reads)+len(writes))
	seen := make(map[ledger.Ref]bool, cap(keys))
	for ref := range reads {
		seen[ref] = true
		keys = append(keys, ref)
	}
	for _, w := range writes {
		if !seen[w.Ref] {
			seen[w.Ref] = true
			keys = append(keys, w.Ref)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	current := make(map[ledger.Ref]int64, len(keys))
	for _, ref := range keys {
		var version int64
		err := tx.QueryRow(ctx, `
			SELECT version FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE
		`, ref.Collection, ref.ID).Scan(&version)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return mapError(err)
		}
		current[ref] = version
	}

	for ref, want := range reads {
		if current[ref] != want {
			return ledger.ErrConflict
		}
	}

	for _, w := range writes {
		_, read := reads[w.Ref]
		if err := apply(ctx, tx, w, current[w.Ref], read); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func apply(ctx context.Context, tx pgx.Tx, w ledger.Write, version int64, read bool) error {
	switch w.Kind {
	case ledger.WriteDelete:
		if version == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, w.Ref.Collection, w.Ref.ID)
		return mapError(err)

	case ledger.WriteCreate, ledger.WriteSet:
		if version != 0 {
			if w.Kind == ledger.WriteCreate {
				return ledger.ErrAlreadyExists
			}
			_, err := tx.Exec(ctx, `
				UPDATE documents
				SET data = $3, version = nextval('documents_version_seq'), updated_at = now()
				WHERE collection = $1 AND id = $2
			`, w.Ref.Collection, w.Ref.ID, []byte(w.Data))
			return mapError(err)
		}

		// absent rows cannot be locked; a concurrent insert shows up as zero rows
		tag, err := tx.Exec(ctx, `
			INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
			ON CONFLICT (collection, id) DO NOTHING
		`, w.Ref.Collection, w.Ref.ID, []byte(w.Data))
		if err != nil {
			return mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return lostInsert(w.Kind, read)
		}
		return nil

	default:
		return fmt.Errorf("ledger/postgres: unknown write kind %d", w.Kind)
	}
}

// lostInsert classifies an insert that found the row already present. A
// document read as absent was created concurrently, which is a conflict to
// retry; only a blind Create reports ErrAlreadyExists.
func lostInsert(kind ledger.WriteKind, read bool) error {
	if kind == ledger.WriteCreate && !read {
		return ledger.ErrAlreadyExists
	}
	return ledger.ErrConflict
}

// List translates filters into JSONB predicates.
func (s *Store) List(ctx context.Context, collection string, filters []ledger.Filter) ([]ledger.Document, error) {
	query, args, err := buildListQuery(collection, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []ledger.Document
	for rows.Next() {
		var (
			id      string
			data    []byte
			version int64
		)
		if err := rows.Scan(&id, &data, &version); err != nil {
			return nil, err
		}
		docs = append(docs, ledger.Document{Ref: ledger.Doc(collection, id), Data: data, Version: version})
	}
	return docs, rows.Err()
}

func buildListQuery(collection string, filters []ledger.Filter) (string, []any, error) {
	var b strings.Builder
	args := []any{collection}
	b.WriteString(`SELECT id, data, version FROM documents WHERE collection = $1`)

	for _, f := range filters {
		args = append(args, f.Field)
		fieldArg := "($" + strconv.Itoa(len(args)) + "::text)"

		switch f.Op {
		case ledger.OpEq:
			value, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("ledger/postgres: filter %s: %w", f.Field, err)
			}
			args = append(args, string(value))
			fmt.Fprintf(&b, ` AND data->%s = $%d::jsonb`, fieldArg, len(args))
		case ledger.OpBefore:
			t, ok := f.Value.(time.Time)
			if !ok {
				return "", nil, fmt.Errorf("ledger/postgres: filter %s: before needs time.Time", f.Field)
			}
			args = append(args, t)
			fmt.Fprintf(&b, ` AND (data->>%s)::timestamptz <= $%d`, fieldArg, len(args))
		default:
			return "", nil, fmt.Errorf("ledger/postgres: unsupported filter op %q", f.Op)
		}
	}
	b.WriteString(` ORDER BY id`)
	return b.String(), args, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
			return ledger.ErrConflict
		}
	}
	return err
}
