package models

import (
	"time"

	"github.com/eaglebank/ledger-service/shared/money"
)

// TransactionType is the direction-bearing kind of a ledger entry.
type TransactionType string

const (
	TransactionDeposit     TransactionType = "deposit"
	TransactionWithdraw    TransactionType = "withdraw"
	TransactionTransferIn  TransactionType = "transfer_in"
	TransactionTransferOut TransactionType = "transfer_out"
)

// Signed returns the balance delta this entry type applies for amount.
func (t TransactionType) Signed(amount money.Amount) money.Amount {
	switch t {
	case TransactionWithdraw, TransactionTransferOut:
		return amount.Neg()
	default:
		return amount
	}
}

// StatusCompleted is the only status in use; there is no async settlement.
const StatusCompleted = "completed"

type Account struct {
	AccountNo      int64        `json:"account_no"`
	Name           string       `json:"name"`
	SortCode       string       `json:"sort_code"`
	Balance        money.Amount `json:"balance"`
	OpeningBalance money.Amount `json:"opening_balance"`
	Currency       string       `json:"currency"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewAccount carries the fields needed to open an account.
type NewAccount struct {
	Name           string
	SortCode       string
	OpeningBalance money.Amount
	Currency       string
}

// Transaction is an immutable ledger entry. For transfers there is one entry
// per leg, each pointing at the other account through RelatedAccountNo.
type Transaction struct {
	ID               int64           `json:"id"`
	AccountNo        int64           `json:"account_no"`
	Type             TransactionType `json:"type"`
	Amount           money.Amount    `json:"amount"`
	RelatedAccountNo *int64          `json:"related_account_no,omitempty"`
	Description      string          `json:"description"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// BalanceChange is the outcome of a single-account deposit or withdrawal.
type BalanceChange struct {
	AccountNo   int64        `json:"account_no"`
	Name        string       `json:"name"`
	Amount      money.Amount `json:"amount"`
	NewBalance  money.Amount `json:"new_balance"`
	Currency    string       `json:"currency"`
	Transaction Transaction  `json:"transaction"`
}

// TransferResult is the outcome of a completed transfer.
type TransferResult struct {
	FromAccountNo int64        `json:"from_account_no"`
	ToAccountNo   int64        `json:"to_account_no"`
	ToName        string       `json:"to_name"`
	Amount        money.Amount `json:"amount"`
	FromBalance   money.Amount `json:"from_balance"`
	ToBalance     money.Amount `json:"to_balance"`
	Currency      string       `json:"currency"`
	Debit         Transaction  `json:"debit"`
	Credit        Transaction  `json:"credit"`
}
