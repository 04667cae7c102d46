package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

// runStoreContract exercises behaviour every Store backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	open := func(t *testing.T, s Store, name, balance string) *models.Account {
		t.Helper()
		acct, err := s.CreateAccount(ctx, models.NewAccount{
			Name: name, SortCode: "11-11-11", OpeningBalance: money.MustParse(balance), Currency: "GBP",
		})
		if err != nil {
			t.Fatalf("CreateAccount(%s): %v", name, err)
		}
		return acct
	}

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		alice := open(t, s, "Alice", "1000")
		bob := open(t, s, "Bob", "0")
		if alice.AccountNo != 1 || bob.AccountNo != 2 {
			t.Fatalf("account numbers = %d, %d", alice.AccountNo, bob.AccountNo)
		}
		got, err := s.GetAccount(ctx, alice.AccountNo)
		if err != nil {
			t.Fatalf("GetAccount: %v", err)
		}
		if got.Name != "Alice" || got.Balance != money.MustParse("1000") || got.OpeningBalance != got.Balance {
			t.Errorf("GetAccount = %+v", got)
		}
	})

	t.Run("create rejects bad input", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateAccount(ctx, models.NewAccount{Name: "Neg", OpeningBalance: money.FromMinor(-1), Currency: "GBP"})
		if ledger.Kind(err) != ledger.KindInvalidAmount {
			t.Errorf("negative opening balance: %v", err)
		}
		_, err = s.CreateAccount(ctx, models.NewAccount{Name: "  ", Currency: "GBP"})
		if ledger.Kind(err) != ledger.KindInvalidAccount {
			t.Errorf("blank name: %v", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		s := newStore(t)
		open(t, s, "Alice", "10")
		var nf *ledger.AccountNotFoundError
		if _, err := s.GetAccount(ctx, 999); !errors.As(err, &nf) || nf.AccountNo != 999 {
			t.Errorf("GetAccount(999) = %v", err)
		}
		err := s.WithAccounts(ctx, []int64{998, 1}, func(tx Tx) error { return nil })
		if !errors.As(err, &nf) || nf.AccountNo != 998 {
			t.Errorf("WithAccounts = %v", err)
		}
		if _, err := s.ListTransactions(ctx, 999, ListOptions{}); !errors.As(err, &nf) {
			t.Errorf("ListTransactions(999) = %v", err)
		}
	})

	t.Run("adjust balance commits with log", func(t *testing.T) {
		s := newStore(t)
		acct := open(t, s, "Alice", "100")
		entry := &models.Transaction{AccountNo: acct.AccountNo, Type: models.TransactionDeposit, Amount: money.MustParse("25.50")}
		err := s.WithAccounts(ctx, []int64{acct.AccountNo}, func(tx Tx) error {
			nb, err := tx.AdjustBalance(acct.AccountNo, entry.Amount)
			if err != nil {
				return err
			}
			if nb != money.MustParse("125.50") {
				t.Errorf("new balance = %s", nb)
			}
			return tx.Append(entry)
		})
		if err != nil {
			t.Fatalf("WithAccounts: %v", err)
		}
		if entry.ID == 0 || entry.CreatedAt.IsZero() || entry.Status != models.StatusCompleted {
			t.Errorf("entry not filled: %+v", entry)
		}
		got, _ := s.GetAccount(ctx, acct.AccountNo)
		if got.Balance != money.MustParse("125.50") {
			t.Errorf("balance = %s", got.Balance)
		}
		txs, _ := s.ListTransactions(ctx, acct.AccountNo, ListOptions{})
		if len(txs) != 1 || txs[0].ID != entry.ID {
			t.Errorf("log = %+v", txs)
		}
	})

	t.Run("insufficient funds leaves balance", func(t *testing.T) {
		s := newStore(t)
		acct := open(t, s, "Alice", "1500")
		err := s.WithAccounts(ctx, []int64{acct.AccountNo}, func(tx Tx) error {
			_, err := tx.AdjustBalance(acct.AccountNo, money.MustParse("-2000"))
			return err
		})
		var insufficient *ledger.InsufficientFundsError
		if !errors.As(err, &insufficient) {
			t.Fatalf("expected InsufficientFundsError, got %v", err)
		}
		if insufficient.Balance != money.MustParse("1500") || insufficient.Requested != money.MustParse("2000") {
			t.Errorf("error fields = %+v", insufficient)
		}
		got, _ := s.GetAccount(ctx, acct.AccountNo)
		if got.Balance != money.MustParse("1500") {
			t.Errorf("balance changed to %s", got.Balance)
		}
	})

	t.Run("failed unit rolls back every change", func(t *testing.T) {
		s := newStore(t)
		a := open(t, s, "Alice", "100")
		b := open(t, s, "Bob", "0")
		boom := errors.New("boom")
		err := s.WithAccounts(ctx, []int64{a.AccountNo, b.AccountNo}, func(tx Tx) error {
			if _, err := tx.AdjustBalance(a.AccountNo, money.MustParse("-40")); err != nil {
				return err
			}
			if err := tx.Append(&models.Transaction{AccountNo: a.AccountNo, Type: models.TransactionTransferOut, Amount: money.MustParse("40")}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v", err)
		}
		got, _ := s.GetAccount(ctx, a.AccountNo)
		if got.Balance != money.MustParse("100") {
			t.Errorf("balance = %s", got.Balance)
		}
		if txs, _ := s.ListTransactions(ctx, a.AccountNo, ListOptions{}); len(txs) != 0 {
			t.Errorf("log not rolled back: %+v", txs)
		}
	})

	t.Run("listing order and cursor", func(t *testing.T) {
		s := newStore(t)
		acct := open(t, s, "Alice", "0")
		var ids []int64
		for i := 1; i <= 5; i++ {
			entry := &models.Transaction{AccountNo: acct.AccountNo, Type: models.TransactionDeposit, Amount: money.FromMajor(int64(i))}
			err := s.WithAccounts(ctx, []int64{acct.AccountNo}, func(tx Tx) error {
				if _, err := tx.AdjustBalance(acct.AccountNo, entry.Amount); err != nil {
					return err
				}
				return tx.Append(entry)
			})
			if err != nil {
				t.Fatalf("deposit %d: %v", i, err)
			}
			ids = append(ids, entry.ID)
		}

		desc, _ := s.ListTransactions(ctx, acct.AccountNo, ListOptions{Limit: 2})
		if len(desc) != 2 || desc[0].ID != ids[4] || desc[1].ID != ids[3] {
			t.Fatalf("desc page = %+v", desc)
		}
		next, _ := s.ListTransactions(ctx, acct.AccountNo, ListOptions{Limit: 2, Cursor: desc[1].ID})
		if len(next) != 2 || next[0].ID != ids[2] || next[1].ID != ids[1] {
			t.Fatalf("desc next page = %+v", next)
		}
		asc, _ := s.ListTransactions(ctx, acct.AccountNo, ListOptions{Order: OrderAsc, Cursor: ids[2]})
		if len(asc) != 2 || asc[0].ID != ids[3] || asc[1].ID != ids[4] {
			t.Fatalf("asc page = %+v", asc)
		}
		for i := 1; i < len(desc); i++ {
			if desc[i].CreatedAt.After(desc[i-1].CreatedAt) {
				t.Errorf("created_at not monotonic: %v after %v", desc[i].CreatedAt, desc[i-1].CreatedAt)
			}
		}
	})

	t.Run("concurrent withdrawals serialize", func(t *testing.T) {
		s := newStore(t)
		acct := open(t, s, "Alice", "1000")
		const workers = 10
		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.WithAccounts(ctx, []int64{acct.AccountNo}, func(tx Tx) error {
					_, err := tx.AdjustBalance(acct.AccountNo, money.MustParse("-300"))
					return err
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				} else if ledger.Kind(err) != ledger.KindInsufficientFunds {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		if succeeded != 3 {
			t.Errorf("succeeded = %d, want 3", succeeded)
		}
		got, _ := s.GetAccount(ctx, acct.AccountNo)
		if got.Balance != money.MustParse("100") {
			t.Errorf("balance = %s", got.Balance)
		}
	})

	t.Run("opposite transfers do not deadlock", func(t *testing.T) {
		s := newStore(t)
		a := open(t, s, "Alice", "1000")
		b := open(t, s, "Bob", "1000")
		move := func(from, to int64) error {
			return s.WithAccounts(ctx, []int64{from, to}, func(tx Tx) error {
				if _, err := tx.AdjustBalance(from, money.FromMajor(-1)); err != nil {
					return err
				}
				_, err := tx.AdjustBalance(to, money.FromMajor(1))
				return err
			})
		}
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() { defer wg.Done(); _ = move(a.AccountNo, b.AccountNo) }()
			go func() { defer wg.Done(); _ = move(b.AccountNo, a.AccountNo) }()
		}
		wg.Wait()

		ga, _ := s.GetAccount(ctx, a.AccountNo)
		gb, _ := s.GetAccount(ctx, b.AccountNo)
		if total, _ := ga.Balance.Add(gb.Balance); total != money.FromMajor(2000) {
			t.Errorf("total = %s, want 2000.00", total)
		}
	})
}
