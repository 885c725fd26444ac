package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPointAccount = `-- name: CreatePointAccount :one
INSERT INTO point_accounts (id, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, balance, version, created_at, updated_at
`

type CreatePointAccountParams struct {
	ID        string             `json:"id"`
	Balance   int64              `json:"balance"`
	Version   int64              `json:"version"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreatePointAccount(ctx context.Context, arg CreatePointAccountParams) (PointAccount, error) {
	row := q.db.QueryRow(ctx, createPointAccount,
		arg.ID,
		arg.Balance,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i PointAccount
	err := row.Scan(
		&i.ID,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPointAccount = `-- name: GetPointAccount :one
SELECT id, balance, version, created_at, updated_at FROM point_accounts WHERE id = $1
`

func (q *Queries) GetPointAccount(ctx context.Context, id string) (PointAccount, error) {
	row := q.db.QueryRow(ctx, getPointAccount, id)
	var i PointAccount
	err := row.Scan(
		&i.ID,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPointAccountForUpdate = `-- name: GetPointAccountForUpdate :one
SELECT id, balance, version, created_at, updated_at FROM point_accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetPointAccountForUpdate(ctx context.Context, id string) (PointAccount, error) {
	row := q.db.QueryRow(ctx, getPointAccountForUpdate, id)
	var i PointAccount
	err := row.Scan(
		&i.ID,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPointAccounts = `-- name: ListPointAccounts :many
SELECT id, balance, version, created_at, updated_at FROM point_accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2
`

type ListPointAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListPointAccounts(ctx context.Context, arg ListPointAccountsParams) ([]PointAccount, error) {
	rows, err := q.db.Query(ctx, listPointAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PointAccount{}
	for rows.Next() {
		var i PointAccount
		if err := rows.Scan(
			&i.ID,
			&i.Balance,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const updatePointAccountBalance = `-- name: UpdatePointAccountBalance :exec
UPDATE point_accounts
SET balance = $2, version = version + 1, updated_at = $3
WHERE id = $1
`

type UpdatePointAccountBalanceParams struct {
	ID        string             `json:"id"`
	Balance   int64              `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdatePointAccountBalance(ctx context.Context, arg UpdatePointAccountBalanceParams) error {
	_, err := q.db.Exec(ctx, updatePointAccountBalance, arg.ID, arg.Balance, arg.UpdatedAt)
	return err
}

const upsertPointAccount = `-- name: UpsertPointAccount :exec
INSERT INTO point_accounts (id, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING
`

type UpsertPointAccountParams struct {
	ID        string             `json:"id"`
	Balance   int64              `json:"balance"`
	Version   int64              `json:"version"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertPointAccount(ctx context.Context, arg UpsertPointAccountParams) error {
	_, err := q.db.Exec(ctx, upsertPointAccount,
		arg.ID,
		arg.Balance,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
