package repository

import (
	"context"
	"sort"

	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

// Order of a transaction listing.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ListOptions bounds a transaction listing. Cursor is the id of the last entry
// already seen: with OrderDesc only older entries (id < Cursor) are returned,
// with OrderAsc only newer ones (id > Cursor). Zero values mean newest-first,
// unlimited, from the start.
type ListOptions struct {
	Order  Order
	Limit  int
	Cursor int64
}

// AccountStore is the authoritative source of account existence and balance.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct models.NewAccount) (*models.Account, error)
	GetAccount(ctx context.Context, accountNo int64) (*models.Account, error)
}

// TransactionLog is the append-only audit trail. Appends happen through Tx so
// they commit with the balance changes they record.
type TransactionLog interface {
	ListTransactions(ctx context.Context, accountNo int64, opts ListOptions) ([]models.Transaction, error)
}

// Store is a complete ledger backend.
type Store interface {
	AccountStore
	TransactionLog

	// WithAccounts locks accountNos in ascending order and runs fn as a single
	// atomic unit. Changes made through tx are committed when fn returns nil
	// and discarded otherwise. An unknown account fails with
	// *ledger.AccountNotFoundError before fn runs, reported in the order the
	// caller listed the accounts.
	WithAccounts(ctx context.Context, accountNos []int64, fn func(tx Tx) error) error

	Close() error
}

// Tx is the view of the locked accounts inside WithAccounts.
type Tx interface {
	// Account returns a copy of a locked account including staged changes.
	Account(accountNo int64) (*models.Account, error)

	// AdjustBalance applies delta and returns the new balance. It fails with
	// *ledger.InsufficientFundsError if the balance would drop below zero, in
	// which case nothing is changed.
	AdjustBalance(accountNo int64, delta money.Amount) (money.Amount, error)

	// Append records an entry. ID, CreatedAt and Status are set on t no later
	// than the commit.
	Append(t *models.Transaction) error
}

// lockOrder returns the distinct account numbers in ascending order.
func lockOrder(accountNos []int64) []int64 {
	out := make([]int64, 0, len(accountNos))
	seen := make(map[int64]bool, len(accountNos))
	for _, no := range accountNos {
		if !seen[no] {
			seen[no] = true
			out = append(out, no)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalizeOrder(o Order) Order {
	if o == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}
