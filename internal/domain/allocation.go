package domain

import (
	"sort"
)

// Draw is one slice of a planned allocation: take Amount from Entry.
type Draw struct {
	Entry  *Entry
	Amount int64
}

// SortAccruals orders accruals for allocation: soonest expiry first, entry ID
// (creation order) as tiebreaker. Entries without an expiry sort last.
func SortAccruals(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.ExpiresAt == nil && b.ExpiresAt == nil:
			return a.ID < b.ID
		case a.ExpiresAt == nil:
			return false
		case b.ExpiresAt == nil:
			return true
		case a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ID < b.ID
		}
		return a.ExpiresAt.Before(*b.ExpiresAt)
	})
}

// PlanAllocation apportions amount across the accruals, earliest expiry
// first. It is a pure planning step: nothing is mutated, so a shortfall
// leaves no trace. Returns ErrInsufficientBalance when the live remainders
// cannot cover amount.
func PlanAllocation(accruals []*Entry, amount int64) ([]Draw, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ordered := make([]*Entry, 0, len(accruals))
	for _, e := range accruals {
		if e.Kind.IsAccrual() && !e.Expired && e.Remaining() > 0 {
			ordered = append(ordered, e)
		}
	}
	SortAccruals(ordered)

	draws := make([]Draw, 0, len(ordered))
	left := amount
	for _, e := range ordered {
		if left == 0 {
			break
		}
		take := e.Remaining()
		if take > left {
			take = left
		}
		draws = append(draws, Draw{Entry: e, Amount: take})
		left -= take
	}
	if left > 0 {
		return nil, ErrInsufficientBalance
	}
	return draws, nil
}

// PlanClawback apportions amount like PlanAllocation but prefers the accruals
// earned by the cancelled order before falling back to FIFO order over the
// rest. Used when clawing back an order's earned points.
func PlanClawback(accruals []*Entry, amount int64, orderRef string) ([]Draw, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var own, rest []*Entry
	for _, e := range accruals {
		if !e.Kind.IsAccrual() || e.Expired || e.Remaining() <= 0 {
			continue
		}
		if orderRef != "" && e.OrderRef == orderRef && e.Kind == KindEarn {
			own = append(own, e)
		} else {
			rest = append(rest, e)
		}
	}
	SortAccruals(own)
	SortAccruals(rest)

	draws := make([]Draw, 0, len(own)+len(rest))
	left := amount
	for _, e := range append(own, rest...) {
		if left == 0 {
			break
		}
		take := e.Remaining()
		if take > left {
			take = left
		}
		draws = append(draws, Draw{Entry: e, Amount: take})
		left -= take
	}
	if left > 0 {
		return nil, ErrInsufficientBalance
	}
	return draws, nil
}
