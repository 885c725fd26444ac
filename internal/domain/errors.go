package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")

	// Ledger errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidKind         = errors.New("unknown entry kind")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrEntryNotFound       = errors.New("ledger entry not found")
	ErrEntryExpired        = errors.New("ledger entry already expired")

	// Concurrency errors
	ErrLockTimeout = errors.New("account lock acquisition timed out")
)
