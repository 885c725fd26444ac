package domain

import (
	"time"
)

// Kind discriminates ledger entry types. Accrual kinds carry positive
// amounts and an expiry; consumption kinds carry negative amounts.
type Kind string

const (
	KindEarn         Kind = "earn"
	KindUse          Kind = "use"
	KindExpireDebit  Kind = "expire_debit"
	KindCancelRefund Kind = "cancel_refund"
	KindCancelClaw   Kind = "cancel_claw"
	KindAdminAdd     Kind = "admin_add"
	KindAdminDeduct  Kind = "admin_deduct"
	KindEventGrant   Kind = "event_grant"
)

// IsAccrual reports whether entries of this kind add spendable points.
func (k Kind) IsAccrual() bool {
	switch k {
	case KindEarn, KindCancelRefund, KindAdminAdd, KindEventGrant:
		return true
	}
	return false
}

// IsValid reports whether k is one of the eight ledger kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindEarn, KindUse, KindExpireDebit, KindCancelRefund,
		KindCancelClaw, KindAdminAdd, KindAdminDeduct, KindEventGrant:
		return true
	}
	return false
}

// Entry is a single row of the point ledger. Accrual entries are mutated in
// place (UsedAmount, Expired, Notified only); consumption entries are
// write-once facts.
type Entry struct {
	ID           string
	AccountID    string
	Amount       int64
	BalanceAfter int64
	Kind         Kind
	OrderRef     string
	ExpiresAt    *time.Time
	UsedAmount   int64
	Expired      bool
	Notified     bool
	CreatedAt    time.Time
}

// NewAccrualEntry builds a positive entry of an accrual kind. The sign
// constraint and the expiry requirement are enforced here so no other layer
// can mint a malformed accrual.
func NewAccrualEntry(id, accountID string, kind Kind, amount int64, orderRef string, expiresAt time.Time, balanceAfter int64, createdAt time.Time) (*Entry, error) {
	if !kind.IsAccrual() {
		return nil, ErrInvalidKind
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Entry{
		ID:           id,
		AccountID:    accountID,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Kind:         kind,
		OrderRef:     orderRef,
		ExpiresAt:    &expiresAt,
		CreatedAt:    createdAt,
	}, nil
}

// NewConsumptionEntry builds a negative entry of a consumption kind.
// amount is the signed delta and must be strictly negative.
func NewConsumptionEntry(id, accountID string, kind Kind, amount int64, orderRef string, balanceAfter int64, createdAt time.Time) (*Entry, error) {
	if !kind.IsValid() || kind.IsAccrual() {
		return nil, ErrInvalidKind
	}
	if amount >= 0 {
		return nil, ErrInvalidAmount
	}
	return &Entry{
		ID:           id,
		AccountID:    accountID,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Kind:         kind,
		OrderRef:     orderRef,
		CreatedAt:    createdAt,
	}, nil
}

// Remaining returns the portion of an accrual not yet drawn by allocation or
// expiry. Zero for consumption entries and for expired accruals.
func (e *Entry) Remaining() int64 {
	if !e.Kind.IsAccrual() || e.Expired {
		return 0
	}
	return e.Amount - e.UsedAmount
}

// DueAt reports whether the accrual's expiry has passed at now. Entries
// without an expiry never come due.
func (e *Entry) DueAt(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return !e.ExpiresAt.After(now)
}

// Draw consumes amount from the accrual's remainder. The caller must hold the
// account lock and must have planned the draw against current state.
func (e *Entry) Draw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Expired {
		return ErrEntryExpired
	}
	if amount > e.Remaining() {
		return ErrInsufficientBalance
	}
	e.UsedAmount += amount
	return nil
}

// Restore gives amount back to the accrual's remainder, reversing a prior
// draw. Expired accruals cannot be restored.
func (e *Entry) Restore(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Expired {
		return ErrEntryExpired
	}
	if amount > e.UsedAmount {
		return ErrInvalidAmount
	}
	e.UsedAmount -= amount
	return nil
}

// Usage causes recorded on the consumption side-record.
const (
	CauseUse           = "use"
	CauseExpire        = "expire"
	CauseCancelClaw    = "cancel_claw"
	CauseCancelRestore = "cancel_restore"
	CauseAdminDeduct   = "admin_deduct"
)

// Usage is one event in an accrual's consumption history. Amount is positive
// when drawn from the accrual and negative when restored by a cancellation
// refund. UseEntryID links to the consuming entry when one exists.
type Usage struct {
	ID         int64
	EntryID    string
	UseEntryID string
	Amount     int64
	Cause      string
	UsedAt     time.Time
}
