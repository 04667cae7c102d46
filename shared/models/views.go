package models

import (
	"time"

	"github.com/eaglebank/ledger-service/shared/money"
)

// AccountView is the read-side projection of an account served by the API and
// stored in the Redis view cache. Opening balance is kept internal.
type AccountView struct {
	AccountNo int64        `json:"account_no"`
	Name      string       `json:"name"`
	SortCode  string       `json:"sort_code"`
	Balance   money.Amount `json:"balance"`
	Currency  string       `json:"currency"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ToView projects an account for readers.
func (a *Account) ToView() *AccountView {
	return &AccountView{
		AccountNo: a.AccountNo,
		Name:      a.Name,
		SortCode:  a.SortCode,
		Balance:   a.Balance,
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// TransactionPage is one page of an account's history. NextCursor is set when
// the page was cut by a limit and more entries may follow.
type TransactionPage struct {
	AccountNo    int64         `json:"account_no"`
	Transactions []Transaction `json:"transactions"`
	NextCursor   *int64        `json:"next_cursor,omitempty"`
}
