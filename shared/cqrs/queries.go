package cqrs

// GetAccountQuery fetches a single account by account number.
type GetAccountQuery struct {
	AccountNo int64
}

// ListTransactionsQuery pages through an account's history. Order is "desc"
// (default) or "asc"; Cursor is the id of the last entry already seen.
type ListTransactionsQuery struct {
	AccountNo int64
	Order     string
	Limit     int
	Cursor    int64
}
