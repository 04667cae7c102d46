package events

import "time"

// Event types
const (
	AccountOpened     = "account.opened"
	FundsDeposited    = "funds.deposited"
	FundsWithdrawn    = "funds.withdrawn"
	TransferCompleted = "transfer.completed"
)

// Stream names
const (
	LedgerEventsStream = "ledger.events"
)

// Base event structure
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Account events
type AccountOpenedEvent struct {
	AccountNo      int64  `json:"accountNo"`
	Name           string `json:"name"`
	SortCode       string `json:"sortCode"`
	OpeningBalance int64  `json:"openingBalance"`
}

// Balance events carry amounts in minor units.
type FundsMovedEvent struct {
	TransactionID int64  `json:"transactionId"`
	AccountNo     int64  `json:"accountNo"`
	Amount        int64  `json:"amount"`
	NewBalance    int64  `json:"newBalance"`
	RequestedBy   string `json:"requestedBy,omitempty"`
}

type TransferCompletedEvent struct {
	DebitTransactionID  int64  `json:"debitTransactionId"`
	CreditTransactionID int64  `json:"creditTransactionId"`
	FromAccountNo       int64  `json:"fromAccountNo"`
	ToAccountNo         int64  `json:"toAccountNo"`
	Amount              int64  `json:"amount"`
	FromBalance         int64  `json:"fromBalance"`
	ToBalance           int64  `json:"toBalance"`
	RequestedBy         string `json:"requestedBy,omitempty"`
}

// AffectedAccounts returns the account numbers an event touched, decoding
// Data from its generic JSON form.
func (e Event) AffectedAccounts() []int64 {
	data, ok := e.Data.(map[string]any)
	if !ok {
		return nil
	}
	var out []int64
	for _, key := range []string{"accountNo", "fromAccountNo", "toAccountNo"} {
		if v, ok := data[key].(float64); ok && v > 0 {
			out = append(out, int64(v))
		}
	}
	return out
}
