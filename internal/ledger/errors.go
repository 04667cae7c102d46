// Package ledger defines the typed errors raised by the account store and the
// ledger operations, and the recipient-matching policy used by transfers.
package ledger

import (
	"errors"
	"fmt"

	"github.com/eaglebank/ledger-service/shared/money"
)

var (
	// ErrInvalidAmount: amount <= 0 or not a valid monetary value.
	ErrInvalidAmount = errors.New("Invalid amount")

	ErrSameAccount = errors.New("Cannot transfer to the same account")

	// ErrInvalidAccount: account details rejected at creation (empty name,
	// malformed sort code).
	ErrInvalidAccount = errors.New("Invalid account details")

	// ErrRecipientMismatch: supplied recipient name or sort code does not
	// match the destination account on file.
	ErrRecipientMismatch = errors.New("Recipient details do not match the destination account")
)

// AccountNotFoundError reports a reference to an unknown account number.
type AccountNotFoundError struct {
	AccountNo int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("Account %d not found", e.AccountNo)
}

// InsufficientFundsError reports a debit that would take the balance below
// zero. The message is relayed verbatim to end users.
type InsufficientFundsError struct {
	AccountNo int64
	Balance   money.Amount
	Requested money.Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient funds: current balance %s, requested %s", e.Balance, e.Requested)
}

// StorageError wraps a persistence-layer failure. It is fatal to the current
// operation and is never retried by the ledger.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it already carries a ledger kind.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != KindInternal {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// InvalidAmount annotates ErrInvalidAmount with a reason.
func InvalidAmount(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAmount, fmt.Sprintf(format, args...))
}

// Error kinds, stable across transports.
const (
	KindAccountNotFound     = "account_not_found"
	KindInvalidAmount       = "invalid_amount"
	KindInsufficientFunds   = "insufficient_funds"
	KindSameAccountTransfer = "same_account_transfer"
	KindRecipientMismatch   = "recipient_mismatch"
	KindInvalidAccount      = "invalid_account"
	KindStorageFault        = "storage_fault"
	KindInternal            = "internal"
)

// Kind classifies err into one of the Kind constants.
func Kind(err error) string {
	var notFound *AccountNotFoundError
	var insufficient *InsufficientFundsError
	var storage *StorageError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return KindAccountNotFound
	case errors.As(err, &insufficient):
		return KindInsufficientFunds
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, money.ErrInvalid):
		return KindInvalidAmount
	case errors.Is(err, ErrSameAccount):
		return KindSameAccountTransfer
	case errors.Is(err, ErrRecipientMismatch):
		return KindRecipientMismatch
	case errors.Is(err, ErrInvalidAccount):
		return KindInvalidAccount
	case errors.As(err, &storage):
		return KindStorageFault
	default:
		return KindInternal
	}
}

// UserMessage returns the text shown to end users for err. Storage details
// are not exposed.
func UserMessage(err error) string {
	switch Kind(err) {
	case "":
		return ""
	case KindStorageFault:
		return "The ledger is temporarily unavailable, please try again later"
	case KindInternal:
		return "Internal error while processing the request"
	default:
		return err.Error()
	}
}
