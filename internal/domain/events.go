package domain

import "time"

// Event types
const (
	EventTypePointsEarned   = "point.earned"
	EventTypePointsUsed     = "point.used"
	EventTypePointsExpired  = "point.expired"
	EventTypePointsReversed = "point.reversed"
	EventTypePointsGranted  = "point.granted"
	EventTypePointsAdjusted = "point.adjusted"
)

// Aggregate types
const (
	AggregateTypeAccount = "point_account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PointsEarnedEvent payload
type PointsEarnedEvent struct {
	AccountID string `json:"account_id"`
	EntryID   string `json:"entry_id"`
	Amount    int64  `json:"amount"`
	OrderRef  string `json:"order_ref,omitempty"`
	Note      string `json:"note,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

// PointsUsedEvent payload
type PointsUsedEvent struct {
	AccountID string `json:"account_id"`
	EntryID   string `json:"entry_id"`
	Amount    int64  `json:"amount"`
	OrderRef  string `json:"order_ref,omitempty"`
	Note      string `json:"note,omitempty"`
	Drawn     int    `json:"drawn_entries"`
}

// PointsExpiredEvent payload
type PointsExpiredEvent struct {
	AccountID string `json:"account_id"`
	EntryID   string `json:"entry_id"`
	SourceID  string `json:"source_entry_id"`
	Amount    int64  `json:"amount"`
}

// PointsReversedEvent payload
type PointsReversedEvent struct {
	AccountID  string `json:"account_id"`
	OrderRef   string `json:"order_ref"`
	Refunded   int64  `json:"refunded"`
	Restored   int64  `json:"restored"`
	ClawedBack int64  `json:"clawed_back"`
}

// PointsGrantedEvent payload
type PointsGrantedEvent struct {
	AccountID string `json:"account_id"`
	EntryID   string `json:"entry_id"`
	Amount    int64  `json:"amount"`
	Campaign  string `json:"campaign,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

// PointsAdjustedEvent payload
type PointsAdjustedEvent struct {
	AccountID string `json:"account_id"`
	EntryID   string `json:"entry_id"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
}
