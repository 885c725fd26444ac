package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPointEntryUsage = `-- name: CreatePointEntryUsage :one
INSERT INTO point_entry_usages (entry_id, use_entry_id, amount, cause, used_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, entry_id, use_entry_id, amount, cause, used_at
`

type CreatePointEntryUsageParams struct {
	EntryID    string             `json:"entry_id"`
	UseEntryID pgtype.Text        `json:"use_entry_id"`
	Amount     int64              `json:"amount"`
	Cause      string             `json:"cause"`
	UsedAt     pgtype.Timestamptz `json:"used_at"`
}

func (q *Queries) CreatePointEntryUsage(ctx context.Context, arg CreatePointEntryUsageParams) (PointEntryUsage, error) {
	row := q.db.QueryRow(ctx, createPointEntryUsage,
		arg.EntryID,
		arg.UseEntryID,
		arg.Amount,
		arg.Cause,
		arg.UsedAt,
	)
	var i PointEntryUsage
	err := row.Scan(
		&i.ID,
		&i.EntryID,
		&i.UseEntryID,
		&i.Amount,
		&i.Cause,
		&i.UsedAt,
	)
	return i, err
}

const listUsagesByEntry = `-- name: ListUsagesByEntry :many
SELECT id, entry_id, use_entry_id, amount, cause, used_at FROM point_entry_usages
WHERE entry_id = $1
ORDER BY id
`

func (q *Queries) ListUsagesByEntry(ctx context.Context, entryID string) ([]PointEntryUsage, error) {
	rows, err := q.db.Query(ctx, listUsagesByEntry, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntryUsage{}
	for rows.Next() {
		var i PointEntryUsage
		if err := rows.Scan(
			&i.ID,
			&i.EntryID,
			&i.UseEntryID,
			&i.Amount,
			&i.Cause,
			&i.UsedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUsagesByUseEntry = `-- name: ListUsagesByUseEntry :many
SELECT id, entry_id, use_entry_id, amount, cause, used_at FROM point_entry_usages
WHERE use_entry_id = $1
ORDER BY id
`

func (q *Queries) ListUsagesByUseEntry(ctx context.Context, useEntryID pgtype.Text) ([]PointEntryUsage, error) {
	rows, err := q.db.Query(ctx, listUsagesByUseEntry, useEntryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntryUsage{}
	for rows.Next() {
		var i PointEntryUsage
		if err := rows.Scan(
			&i.ID,
			&i.EntryID,
			&i.UseEntryID,
			&i.Amount,
			&i.Cause,
			&i.UsedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
