package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type PointAccount struct {
	ID        string             `json:"id"`
	Balance   int64              `json:"balance"`
	Version   int64              `json:"version"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type PointEntry struct {
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

type PointEntryUsage struct {
	ID         int64              `json:"id"`
	EntryID    string             `json:"entry_id"`
	UseEntryID pgtype.Text        `json:"use_entry_id"`
	Amount     int64              `json:"amount"`
	Cause      string             `json:"cause"`
	UsedAt     pgtype.Timestamptz `json:"used_at"`
}
