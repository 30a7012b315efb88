package repository

import (
	"context"
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type ReportRepository struct {
	store *ledger.Store
}

func NewReportRepository(store *ledger.Store) *ReportRepository {
	return &ReportRepository{store: store}
}

func (r *ReportRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.Report, error) {
	var rep domain.Report
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollReports, id), &rep)
	if err != nil || !ok {
		return nil, err
	}
	rep.ID = id
	return &rep, nil
}

func (r *ReportRepository) CreateWithTx(tx ledger.Tx, rep *domain.Report) error {
	if rep.ID == "" {
		rep.ID = newID()
	}
	return tx.Create(ledger.Doc(CollReports, rep.ID), rep)
}

func (r *ReportRepository) SaveWithTx(tx ledger.Tx, rep *domain.Report) error {
	return tx.Set(ledger.Doc(CollReports, rep.ID), rep)
}

// ListPending returns reports older than minAge that were never processed.
func (r *ReportRepository) ListPending(ctx context.Context, minAge time.Duration) ([]*domain.Report, error) {
	docs, err := r.store.List(ctx, CollReports,
		ledger.Eq("status", domain.ReportPending),
		ledger.Before("createdAt", time.Now().Add(-minAge)),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, func(rep *domain.Report, id string) { rep.ID = id })
}

// CreateViolationWithTx appends a violation record.
func (r *ReportRepository) CreateViolationWithTx(tx ledger.Tx, v *domain.Violation) error {
	if v.ID == "" {
		v.ID = newID()
	}
	return tx.Create(ledger.Doc(CollViolations, v.ID), v)
}

// entityOwnerCollections maps reportable entity types to the collection
// holding the entity and the JSON field naming its owner.
var entityOwnerCollections = map[domain.EntityType]string{
	domain.EntityVideo:   CollVideos,
	domain.EntityComment: CollComments,
	domain.EntityStream:  CollStreams,
}

// ResolveOwnerWithTx returns the user responsible for an entity, or "" when
// the entity or its owner does not exist.
func (r *ReportRepository) ResolveOwnerWithTx(ctx context.Context, tx ledger.Tx, typ domain.EntityType, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	var owner string
	switch typ {
	case domain.EntityUser:
		owner = id
	case domain.EntityMessage:
		var m domain.Message
		ok, err := getWithTx(ctx, tx, ledger.Doc(CollMessages, id), &m)
		if err != nil || !ok {
			return "", err
		}
		owner = m.SenderID
	default:
		coll, known := entityOwnerCollections[typ]
		if !known {
			return "", nil
		}
		var e domain.OwnedEntity
		ok, err := getWithTx(ctx, tx, ledger.Doc(coll, id), &e)
		if err != nil || !ok {
			return "", err
		}
		owner = e.UserID
	}
	if owner == "" {
		return "", nil
	}

	exists, err := getWithTx(ctx, tx, userRef(owner), nil)
	if err != nil || !exists {
		return "", err
	}
	return owner, nil
}
