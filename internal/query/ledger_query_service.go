package query

import (
	"context"
	"fmt"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// AccountViewReader is satisfied by *repository.AccountReadRepository.
type AccountViewReader interface {
	GetByAccountNo(ctx context.Context, accountNo int64) (*models.AccountView, error)
}

type LedgerQueryService struct {
	views AccountViewReader
	log   repository.TransactionLog
}

func NewLedgerQueryService(views AccountViewReader, log repository.TransactionLog) *LedgerQueryService {
	return &LedgerQueryService{views: views, log: log}
}

func (s *LedgerQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	view, err := s.views.GetByAccountNo(ctx, q.AccountNo)
	if err != nil {
		return nil, ledger.Storage("get account", err)
	}
	return view, nil
}

// ListTransactions returns one page of history. NextCursor is set when the
// page is full and older (or, ascending, newer) entries remain.
func (s *LedgerQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) (*models.TransactionPage, error) {
	order := repository.Order(q.Order)
	switch order {
	case "":
		order = repository.OrderDesc
	case repository.OrderAsc, repository.OrderDesc:
	default:
		return nil, fmt.Errorf("unsupported order %q", q.Order)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	txs, err := s.log.ListTransactions(ctx, q.AccountNo, repository.ListOptions{
		Order:  order,
		Limit:  limit + 1,
		Cursor: q.Cursor,
	})
	if err != nil {
		return nil, ledger.Storage("list transactions", err)
	}

	page := &models.TransactionPage{AccountNo: q.AccountNo, Transactions: txs}
	if len(txs) > limit {
		page.Transactions = txs[:limit]
		next := txs[limit-1].ID
		page.NextCursor = &next
	}
	return page, nil
}
