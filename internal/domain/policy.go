package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy constants
const (
	DefaultLifetimeDays  = 365
	DefaultNotifyHorizon = 7 * 24 * time.Hour
)

// DefaultEarnRate is the fraction of the paid amount granted as points.
var DefaultEarnRate = decimal.NewFromFloat(0.01)

// EarnPolicy fixes how purchases convert to points and how long accruals
// live. Both are applied at creation time and never re-evaluated.
type EarnPolicy struct {
	Rate     decimal.Decimal
	Lifetime time.Duration
}

// DefaultEarnPolicy returns the storefront policy: 1% of the paid amount,
// 365-day lifetime.
func DefaultEarnPolicy() EarnPolicy {
	return EarnPolicy{
		Rate:     DefaultEarnRate,
		Lifetime: DefaultLifetimeDays * 24 * time.Hour,
	}
}

// PointsFor converts a paid money amount into points: paid * rate, truncated
// toward zero, never negative.
func (p EarnPolicy) PointsFor(paid decimal.Decimal) int64 {
	if paid.Sign() <= 0 {
		return 0
	}
	pts := paid.Mul(p.Rate).Truncate(0).IntPart()
	if pts < 0 {
		return 0
	}
	return pts
}

// ExpiryFrom returns the expiry for an accrual created at t.
func (p EarnPolicy) ExpiryFrom(t time.Time) time.Time {
	return t.Add(p.Lifetime)
}
