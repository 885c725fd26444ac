package domain

import (
	"errors"
	"testing"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		amount  int64
		wantErr error
	}{
		{
			name:    "debit less than balance",
			balance: 100,
			amount:  50,
			wantErr: nil,
		},
		{
			name:    "debit exact balance",
			balance: 100,
			amount:  100,
			wantErr: nil,
		},
		{
			name:    "debit more than balance",
			balance: 100,
			amount:  150,
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "zero amount",
			balance: 100,
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			balance: 100,
			amount:  -10,
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.amount)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccount_ApplyDebit(t *testing.T) {
	acc := &Account{Balance: 100}
	if got := acc.ApplyDebit(30); got != 70 {
		t.Errorf("expected balance 70, got %d", got)
	}
}

func TestAccount_ApplyDebitClamped(t *testing.T) {
	acc := &Account{Balance: 100}

	got, clamped := acc.ApplyDebitClamped(30)
	if got != 70 || clamped {
		t.Errorf("expected (70, false), got (%d, %v)", got, clamped)
	}

	got, clamped = acc.ApplyDebitClamped(150)
	if got != 0 || !clamped {
		t.Errorf("expected (0, true), got (%d, %v)", got, clamped)
	}
}

func TestAccount_ApplyCredit(t *testing.T) {
	acc := &Account{Balance: 100}
	if got := acc.ApplyCredit(30); got != 130 {
		t.Errorf("expected balance 130, got %d", got)
	}
}
