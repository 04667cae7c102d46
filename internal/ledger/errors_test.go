package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/eaglebank/ledger-service/shared/money"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", &AccountNotFoundError{AccountNo: 9}, KindAccountNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", &AccountNotFoundError{AccountNo: 9}), KindAccountNotFound},
		{"insufficient", &InsufficientFundsError{AccountNo: 1}, KindInsufficientFunds},
		{"invalid amount", InvalidAmount("must be positive"), KindInvalidAmount},
		{"bad money", money.ErrInvalid, KindInvalidAmount},
		{"same account", ErrSameAccount, KindSameAccountTransfer},
		{"recipient", fmt.Errorf("%w: name", ErrRecipientMismatch), KindRecipientMismatch},
		{"invalid account", ErrInvalidAccount, KindInvalidAccount},
		{"storage", Storage("commit", errors.New("conn reset")), KindStorageFault},
		{"other", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind()=%q want %q", got, tt.want)
			}
		})
	}
}

func TestStorageKeepsLedgerErrors(t *testing.T) {
	nf := &AccountNotFoundError{AccountNo: 3}
	if got := Storage("lock", nf); got != error(nf) {
		t.Fatalf("Storage rewrapped a ledger error: %v", got)
	}
	if Storage("lock", nil) != nil {
		t.Fatal("Storage(nil) should be nil")
	}
}

func TestUserMessage(t *testing.T) {
	err := &InsufficientFundsError{AccountNo: 1, Balance: money.MustParse("1500"), Requested: money.MustParse("2000")}
	if got, want := UserMessage(err), "Insufficient funds: current balance 1500.00, requested 2000.00"; got != want {
		t.Errorf("UserMessage=%q want %q", got, want)
	}
	if got := UserMessage(&AccountNotFoundError{AccountNo: 999}); got != "Account 999 not found" {
		t.Errorf("UserMessage=%q", got)
	}
	storage := Storage("commit", errors.New("password=secret"))
	if got := UserMessage(storage); got == storage.Error() {
		t.Errorf("storage details leaked: %q", got)
	}
}
