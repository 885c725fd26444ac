package domain

import (
	"time"
)

// Account is the per-user balance projection: a cached sum of Remaining()
// over the account's live accrual entries, maintained by the ledger engine
// under the account lock. Balance is never negative.
type Account struct {
	ID        string
	Balance   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks whether the balance covers amount.
func (a *Account) ValidateDebit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDebit returns the balance after subtracting amount. Callers validate
// first; this does not clamp.
func (a *Account) ApplyDebit(amount int64) int64 {
	return a.Balance - amount
}

// ApplyDebitClamped returns the balance after subtracting amount, floored at
// zero, and whether the floor was hit. The expiry sweep uses this: a clamp
// signals an out-of-band inconsistency that is logged, not raised.
func (a *Account) ApplyDebitClamped(amount int64) (int64, bool) {
	next := a.Balance - amount
	if next < 0 {
		return 0, true
	}
	return next, false
}

// ApplyCredit returns the balance after adding amount.
func (a *Account) ApplyCredit(amount int64) int64 {
	return a.Balance + amount
}
