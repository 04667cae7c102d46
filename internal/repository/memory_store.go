package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

// MemoryStore keeps accounts and the transaction log in process memory.
//
// Each account has its own mutex, held for the whole of a WithAccounts unit.
// The store-wide RWMutex only guards the maps and the log slice, so units on
// disjoint accounts run in parallel.
type MemoryStore struct {
	mu            sync.RWMutex
	accounts      map[int64]*memAccount
	log           []models.Transaction
	byAccount     map[int64][]int
	nextAccountNo int64
	nextTxID      int64
	now           func() time.Time
}

type memAccount struct {
	lock      sync.Mutex
	acct      models.Account
	lastEntry time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:      make(map[int64]*memAccount),
		byAccount:     make(map[int64][]int),
		nextAccountNo: 1,
		nextTxID:      1,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, na models.NewAccount) (*models.Account, error) {
	if err := checkNewAccount(na); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	acct := models.Account{
		AccountNo:      s.nextAccountNo,
		Name:           strings.TrimSpace(na.Name),
		SortCode:       na.SortCode,
		Balance:        na.OpeningBalance,
		OpeningBalance: na.OpeningBalance,
		Currency:       na.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.nextAccountNo++
	s.accounts[acct.AccountNo] = &memAccount{acct: acct}
	return &acct, nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, accountNo int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ma, ok := s.accounts[accountNo]
	if !ok {
		return nil, &ledger.AccountNotFoundError{AccountNo: accountNo}
	}
	acct := ma.acct
	return &acct, nil
}

func (s *MemoryStore) WithAccounts(ctx context.Context, accountNos []int64, fn func(tx Tx) error) error {
	s.mu.RLock()
	locked := make(map[int64]*memAccount, len(accountNos))
	for _, no := range accountNos {
		ma, ok := s.accounts[no]
		if !ok {
			s.mu.RUnlock()
			return &ledger.AccountNotFoundError{AccountNo: no}
		}
		locked[no] = ma
	}
	s.mu.RUnlock()

	for _, no := range lockOrder(accountNos) {
		ma := locked[no]
		ma.lock.Lock()
		defer ma.lock.Unlock()
	}

	tx := &memTx{staged: make(map[int64]*models.Account, len(locked))}
	s.mu.RLock()
	for no, ma := range locked {
		acct := ma.acct
		tx.staged[no] = &acct
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(locked, tx)
	return nil
}

func (s *MemoryStore) commit(locked map[int64]*memAccount, tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for no, staged := range tx.staged {
		ma := locked[no]
		if staged.Balance != ma.acct.Balance {
			ma.acct.Balance = staged.Balance
			ma.acct.UpdatedAt = now
		}
	}
	for _, t := range tx.entries {
		ma := locked[t.AccountNo]
		created := now
		if created.Before(ma.lastEntry) {
			created = ma.lastEntry
		}
		ma.lastEntry = created

		t.ID = s.nextTxID
		s.nextTxID++
		t.CreatedAt = created
		if t.Status == "" {
			t.Status = models.StatusCompleted
		}
		s.byAccount[t.AccountNo] = append(s.byAccount[t.AccountNo], len(s.log))
		s.log = append(s.log, *t)
	}
}

func (s *MemoryStore) ListTransactions(ctx context.Context, accountNo int64, opts ListOptions) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.accounts[accountNo]; !ok {
		return nil, &ledger.AccountNotFoundError{AccountNo: accountNo}
	}

	idx := s.byAccount[accountNo]
	out := make([]models.Transaction, 0, len(idx))
	take := func(i int) bool {
		t := s.log[idx[i]]
		if opts.Limit > 0 && len(out) >= opts.Limit {
			return false
		}
		out = append(out, t)
		return true
	}

	if normalizeOrder(opts.Order) == OrderAsc {
		for i := 0; i < len(idx); i++ {
			if opts.Cursor > 0 && s.log[idx[i]].ID <= opts.Cursor {
				continue
			}
			if !take(i) {
				break
			}
		}
	} else {
		for i := len(idx) - 1; i >= 0; i-- {
			if opts.Cursor > 0 && s.log[idx[i]].ID >= opts.Cursor {
				continue
			}
			if !take(i) {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

type memTx struct {
	staged  map[int64]*models.Account
	entries []*models.Transaction
}

func (t *memTx) Account(accountNo int64) (*models.Account, error) {
	acct, ok := t.staged[accountNo]
	if !ok {
		return nil, fmt.Errorf("account %d is not locked in this unit", accountNo)
	}
	out := *acct
	return &out, nil
}

func (t *memTx) AdjustBalance(accountNo int64, delta money.Amount) (money.Amount, error) {
	acct, ok := t.staged[accountNo]
	if !ok {
		return 0, fmt.Errorf("account %d is not locked in this unit", accountNo)
	}
	next, err := applyDelta(acct, delta)
	if err != nil {
		return 0, err
	}
	acct.Balance = next
	return next, nil
}

func (t *memTx) Append(entry *models.Transaction) error {
	if _, ok := t.staged[entry.AccountNo]; !ok {
		return fmt.Errorf("account %d is not locked in this unit", entry.AccountNo)
	}
	t.entries = append(t.entries, entry)
	return nil
}

// applyDelta enforces the non-negative balance rule for every backend.
func applyDelta(acct *models.Account, delta money.Amount) (money.Amount, error) {
	next, err := acct.Balance.Add(delta)
	if err != nil {
		return 0, ledger.InvalidAmount("%v", err)
	}
	if next.IsNegative() {
		return 0, &ledger.InsufficientFundsError{
			AccountNo: acct.AccountNo,
			Balance:   acct.Balance,
			Requested: delta.Neg(),
		}
	}
	return next, nil
}

func checkNewAccount(na models.NewAccount) error {
	if strings.TrimSpace(na.Name) == "" {
		return fmt.Errorf("%w: name is required", ledger.ErrInvalidAccount)
	}
	if na.OpeningBalance.IsNegative() {
		return ledger.InvalidAmount("initial balance cannot be negative")
	}
	return nil
}
