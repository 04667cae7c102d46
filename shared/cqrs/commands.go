package cqrs

import "github.com/eaglebank/ledger-service/shared/money"

type CreateAccountCommand struct {
	Name           string
	SortCode       string
	InitialBalance money.Amount
	RequestedBy    string
}

type DepositCommand struct {
	AccountNo   int64
	Amount      money.Amount
	Description string
	RequestedBy string
}

type WithdrawCommand struct {
	AccountNo   int64
	Amount      money.Amount
	Description string
	RequestedBy string
}

// TransferCommand moves Amount between two accounts. RecipientName and
// RecipientSortCode are optional payee checks against the destination.
type TransferCommand struct {
	FromAccountNo     int64
	ToAccountNo       int64
	Amount            money.Amount
	RecipientName     string
	RecipientSortCode string
	Description       string
	RequestedBy       string
}

// ValidateRecipientCommand confirms payee details without moving money.
type ValidateRecipientCommand struct {
	AccountNo int64
	Name      string
	SortCode  string
}

// IssueTokenCommand exchanges client credentials for a bearer token.
type IssueTokenCommand struct {
	ClientID     string
	ClientSecret string
}
