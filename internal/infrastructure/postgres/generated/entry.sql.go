package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addToPointEntryUsedAmount = `-- name: AddToPointEntryUsedAmount :exec
UPDATE point_entries
SET used_amount = used_amount + $2
WHERE id = $1
`

type AddToPointEntryUsedAmountParams struct {
	ID         string `json:"id"`
	UsedAmount int64  `json:"used_amount"`
}

func (q *Queries) AddToPointEntryUsedAmount(ctx context.Context, arg AddToPointEntryUsedAmountParams) error {
	_, err := q.db.Exec(ctx, addToPointEntryUsedAmount, arg.ID, arg.UsedAmount)
	return err
}

const countPointEntriesByAccount = `-- name: CountPointEntriesByAccount :one
SELECT COUNT(*) FROM point_entries WHERE account_id = $1
`

func (q *Queries) CountPointEntriesByAccount(ctx context.Context, accountID string) (int64, error) {
	row := q.db.QueryRow(ctx, countPointEntriesByAccount, accountID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createPointEntry = `-- name: CreatePointEntry :one
INSERT INTO point_entries (id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at
`

type CreatePointEntryParams struct {
	ID           string             `json:"id"`
	AccountID    string             `json:"account_id"`
	Amount       int64              `json:"amount"`
	BalanceAfter int64              `json:"balance_after"`
	Kind         string             `json:"kind"`
	OrderRef     pgtype.Text        `json:"order_ref"`
	ExpiresAt    pgtype.Timestamptz `json:"expires_at"`
	UsedAmount   int64              `json:"used_amount"`
	Expired      bool               `json:"expired"`
	Notified     bool               `json:"notified"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreatePointEntry(ctx context.Context, arg CreatePointEntryParams) (PointEntry, error) {
	row := q.db.QueryRow(ctx, createPointEntry,
		arg.ID,
		arg.AccountID,
		arg.Amount,
		arg.BalanceAfter,
		arg.Kind,
		arg.OrderRef,
		arg.ExpiresAt,
		arg.UsedAmount,
		arg.Expired,
		arg.Notified,
		arg.CreatedAt,
	)
	var i PointEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Amount,
		&i.BalanceAfter,
		&i.Kind,
		&i.OrderRef,
		&i.ExpiresAt,
		&i.UsedAmount,
		&i.Expired,
		&i.Notified,
		&i.CreatedAt,
	)
	return i, err
}

const getPointEntry = `-- name: GetPointEntry :one
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries WHERE id = $1
`

func (q *Queries) GetPointEntry(ctx context.Context, id string) (PointEntry, error) {
	row := q.db.QueryRow(ctx, getPointEntry, id)
	var i PointEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Amount,
		&i.BalanceAfter,
		&i.Kind,
		&i.OrderRef,
		&i.ExpiresAt,
		&i.UsedAmount,
		&i.Expired,
		&i.Notified,
		&i.CreatedAt,
	)
	return i, err
}

const listDuePointEntries = `-- name: ListDuePointEntries :many
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries
WHERE account_id = $1 AND amount > 0 AND NOT expired AND expires_at <= $2
ORDER BY expires_at, id
`

type ListDuePointEntriesParams struct {
	AccountID string             `json:"account_id"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) ListDuePointEntries(ctx context.Context, arg ListDuePointEntriesParams) ([]PointEntry, error) {
	rows, err := q.db.Query(ctx, listDuePointEntries, arg.AccountID, arg.ExpiresAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntry{}
	for rows.Next() {
		var i PointEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Amount,
			&i.BalanceAfter,
			&i.Kind,
			&i.OrderRef,
			&i.ExpiresAt,
			&i.UsedAmount,
			&i.Expired,
			&i.Notified,
			&i.CreatedAt,
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

const listExpiringSoonPointEntries = `-- name: ListExpiringSoonPointEntries :many
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries
WHERE account_id = $1 AND amount > 0 AND NOT expired AND used_amount < amount AND expires_at > $2 AND expires_at <= $3
ORDER BY expires_at, id
`

type ListExpiringSoonPointEntriesParams struct {
	AccountID   string             `json:"account_id"`
	ExpiresAt   pgtype.Timestamptz `json:"expires_at"`
	ExpiresAt_2 pgtype.Timestamptz `json:"expires_at_2"`
}

func (q *Queries) ListExpiringSoonPointEntries(ctx context.Context, arg ListExpiringSoonPointEntriesParams) ([]PointEntry, error) {
	rows, err := q.db.Query(ctx, listExpiringSoonPointEntries, arg.AccountID, arg.ExpiresAt, arg.ExpiresAt_2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntry{}
	for rows.Next() {
		var i PointEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Amount,
			&i.BalanceAfter,
			&i.Kind,
			&i.OrderRef,
			&i.ExpiresAt,
			&i.UsedAmount,
			&i.Expired,
			&i.Notified,
			&i.CreatedAt,
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

const listExpiringUnnotifiedPointEntries = `-- name: ListExpiringUnnotifiedPointEntries :many
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries
WHERE amount > 0 AND NOT expired AND NOT notified AND used_amount < amount AND expires_at > $1 AND expires_at <= $2
ORDER BY account_id, expires_at, id
LIMIT $3
`

type ListExpiringUnnotifiedPointEntriesParams struct {
	ExpiresAt   pgtype.Timestamptz `json:"expires_at"`
	ExpiresAt_2 pgtype.Timestamptz `json:"expires_at_2"`
	Limit       int32              `json:"limit"`
}

func (q *Queries) ListExpiringUnnotifiedPointEntries(ctx context.Context, arg ListExpiringUnnotifiedPointEntriesParams) ([]PointEntry, error) {
	rows, err := q.db.Query(ctx, listExpiringUnnotifiedPointEntries, arg.ExpiresAt, arg.ExpiresAt_2, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntry{}
	for rows.Next() {
		var i PointEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Amount,
			&i.BalanceAfter,
			&i.Kind,
			&i.OrderRef,
			&i.ExpiresAt,
			&i.UsedAmount,
			&i.Expired,
			&i.Notified,
			&i.CreatedAt,
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

const listLivePointEntries = `-- name: ListLivePointEntries :many
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries
WHERE account_id = $1 AND amount > 0 AND NOT expired AND used_amount < amount
ORDER BY expires_at, id
`

func (q *Queries) ListLivePointEntries(ctx context.Context, accountID string) ([]PointEntry, error) {
	rows, err := q.db.Query(ctx, listLivePointEntries, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntry{}
	for rows.Next() {
		var i PointEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Amount,
			&i.BalanceAfter,
			&i.Kind,
			&i.OrderRef,
			&i.ExpiresAt,
			&i.UsedAmount,
			&i.Expired,
			&i.Notified,
			&i.CreatedAt,
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

const listPointAccountIDsWithDue = `-- name: ListPointAccountIDsWithDue :many
SELECT DISTINCT account_id FROM point_entries
WHERE amount > 0 AND NOT expired AND expires_at <= $1
ORDER BY account_id
LIMIT $2
`

type ListPointAccountIDsWithDueParams struct {
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
	Limit     int32              `json:"limit"`
}

func (q *Queries) ListPointAccountIDsWithDue(ctx context.Context, arg ListPointAccountIDsWithDueParams) ([]string, error) {
	rows, err := q.db.Query(ctx, listPointAccountIDsWithDue, arg.ExpiresAt, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var account_id string
		if err := rows.Scan(&account_id); err != nil {
			return nil, err
		}
		items = append(items, account_id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPointEntriesByAccount = `-- name: ListPointEntriesByAccount :many
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries
WHERE account_id = $1 AND (id < $2 OR $2 = '')
ORDER BY id DESC
LIMIT $3
`

type ListPointEntriesByAccountParams struct {
	AccountID string `json:"account_id"`
	ID        string `json:"id"`
	Limit     int32  `json:"limit"`
}

func (q *Queries) ListPointEntriesByAccount(ctx context.Context, arg ListPointEntriesByAccountParams) ([]PointEntry, error) {
	rows, err := q.db.Query(ctx, listPointEntriesByAccount, arg.AccountID, arg.ID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntry{}
	for rows.Next() {
		var i PointEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Amount,
			&i.BalanceAfter,
			&i.Kind,
			&i.OrderRef,
			&i.ExpiresAt,
			&i.UsedAmount,
			&i.Expired,
			&i.Notified,
			&i.CreatedAt,
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

const listPointEntriesByOrderRef = `-- name: ListPointEntriesByOrderRef :many
SELECT id, account_id, amount, balance_after, kind, order_ref, expires_at, used_amount, expired, notified, created_at FROM point_entries
WHERE account_id = $1 AND order_ref = $2
ORDER BY id
`

type ListPointEntriesByOrderRefParams struct {
	AccountID string      `json:"account_id"`
	OrderRef  pgtype.Text `json:"order_ref"`
}

func (q *Queries) ListPointEntriesByOrderRef(ctx context.Context, arg ListPointEntriesByOrderRefParams) ([]PointEntry, error) {
	rows, err := q.db.Query(ctx, listPointEntriesByOrderRef, arg.AccountID, arg.OrderRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointEntry{}
	for rows.Next() {
		var i PointEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Amount,
			&i.BalanceAfter,
			&i.Kind,
			&i.OrderRef,
			&i.ExpiresAt,
			&i.UsedAmount,
			&i.Expired,
			&i.Notified,
			&i.CreatedAt,
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

const markPointEntriesNotified = `-- name: MarkPointEntriesNotified :exec
UPDATE point_entries
SET notified = TRUE
WHERE id = ANY($1::text[])
`

func (q *Queries) MarkPointEntriesNotified(ctx context.Context, dollar_1 []string) error {
	_, err := q.db.Exec(ctx, markPointEntriesNotified, dollar_1)
	return err
}

const markPointEntryExpired = `-- name: MarkPointEntryExpired :exec
UPDATE point_entries
SET expired = TRUE
WHERE id = $1
`

func (q *Queries) MarkPointEntryExpired(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, markPointEntryExpired, id)
	return err
}

const sumRemainingPoints = `-- name: SumRemainingPoints :one
SELECT COALESCE(SUM(amount - used_amount), 0)::bigint AS remaining
FROM point_entries
WHERE account_id = $1 AND amount > 0 AND NOT expired
`

func (q *Queries) SumRemainingPoints(ctx context.Context, accountID string) (int64, error) {
	row := q.db.QueryRow(ctx, sumRemainingPoints, accountID)
	var remaining int64
	err := row.Scan(&remaining)
	return remaining, err
}
