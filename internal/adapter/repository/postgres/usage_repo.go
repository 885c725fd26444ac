package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/postgres/generated"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

// UsageRepository implements usecase.UsageRepository.
type UsageRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create records a usage event within a transaction and backfills the
// generated row ID.
func (r *UsageRepository) Create(ctx context.Context, tx usecase.Transaction, usage *domain.Usage) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.CreatePointEntryUsage(ctx, generated.CreatePointEntryUsageParams{
		EntryID:    usage.EntryID,
		UseEntryID: stringToPgText(usage.UseEntryID),
		Amount:     usage.Amount,
		Cause:      usage.Cause,
		UsedAt:     timeToPgTimestamptz(usage.UsedAt),
	})
	if err != nil {
		return err
	}

	usage.ID = row.ID

	return nil
}

// ListByUseEntry retrieves the draw-list recorded for a consuming entry,
// in draw order.
func (r *UsageRepository) ListByUseEntry(ctx context.Context, tx usecase.Transaction, useEntryID string) ([]*domain.Usage, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.ListUsagesByUseEntry(ctx, stringToPgText(useEntryID))
	if err != nil {
		return nil, err
	}

	return rowsToUsages(rows), nil
}

// ListByEntry retrieves an accrual's usage history, oldest first.
func (r *UsageRepository) ListByEntry(ctx context.Context, entryID string) ([]*domain.Usage, error) {
	rows, err := r.queries.ListUsagesByEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	return rowsToUsages(rows), nil
}

func rowsToUsages(rows []generated.PointEntryUsage) []*domain.Usage {
	usages := make([]*domain.Usage, 0, len(rows))
	for _, row := range rows {
		usages = append(usages, &domain.Usage{
			ID:         row.ID,
			EntryID:    row.EntryID,
			UseEntryID: row.UseEntryID.String,
			Amount:     row.Amount,
			Cause:      row.Cause,
			UsedAt:     row.UsedAt.Time,
		})
	}

	return usages
}
