package service

import (
	"context"
	"errors"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/repository"
)

// RevenueService folds platform revenue entries into monthly summaries.
type RevenueService struct {
	store   *ledger.Store
	revenue *repository.RevenueRepository
}

func NewRevenueService(store *ledger.Store) *RevenueService {
	return &RevenueService{
		store:   store,
		revenue: repository.NewRevenueRepository(store),
	}
}

// Aggregate adds every unaggregated entry to its month's summary. Each entry
// is marked in the same transaction that counts it.
func (s *RevenueService) Aggregate(ctx context.Context) (int, error) {
	entries, err := s.revenue.ListUnaggregated(ctx)
	if err != nil {
		return 0, err
	}

	var (
		done int
		errs []error
	)
	for _, e := range entries {
		var counted bool
		err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
			counted = false
			entry, err := s.revenue.GetWithTx(ctx, tx, e.ID)
			if err != nil {
				return err
			}
			if entry == nil || entry.Aggregated {
				return nil
			}
			summary, err := s.revenue.SummaryWithTx(ctx, tx, domain.RevenueMonth(entry.Timestamp))
			if err != nil {
				return err
			}
			summary.Total += entry.Amount
			summary.BySource[entry.Source] += entry.Amount
			summary.EntryCount++
			summary.UpdatedAt = utcNow()
			if err := s.revenue.SaveSummaryWithTx(tx, summary); err != nil {
				return err
			}

			entry.Aggregated = true
			counted = true
			return s.revenue.SaveWithTx(tx, entry)
		})
		if err != nil {
			logger.Error("revenue aggregation failed", "entry_id", e.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if counted {
			done++
		}
	}
	return done, errors.Join(errs...)
}
