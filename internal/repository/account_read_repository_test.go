package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
	sharedredis "github.com/eaglebank/ledger-service/shared/redis"
)

func TestAccountReadRepositoryWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	acct, _ := store.CreateAccount(ctx, models.NewAccount{Name: "Alice", SortCode: "11-11-11", OpeningBalance: money.FromMajor(10), Currency: "GBP"})

	repo := NewAccountReadRepository(store, nil, time.Minute)
	view, err := repo.GetByAccountNo(ctx, acct.AccountNo)
	if err != nil {
		t.Fatalf("GetByAccountNo: %v", err)
	}
	if view.Name != "Alice" || view.Balance != money.FromMajor(10) {
		t.Errorf("view = %+v", view)
	}
	repo.InvalidateAccountViews(ctx, acct.AccountNo)

	var nf *ledger.AccountNotFoundError
	if _, err := repo.GetByAccountNo(ctx, 42); !errors.As(err, &nf) {
		t.Errorf("GetByAccountNo(42) = %v", err)
	}
}

func TestAccountReadRepositoryRedis(t *testing.T) {
	addr := os.Getenv("LEDGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEDGER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := sharedredis.NewClient(ctx, sharedredis.Options{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	store := NewMemoryStore()
	acct, _ := store.CreateAccount(ctx, models.NewAccount{Name: "Alice", SortCode: "11-11-11", OpeningBalance: money.FromMajor(10), Currency: "GBP"})
	repo := NewAccountReadRepository(store, client.Client, time.Minute)
	defer repo.InvalidateAccountViews(ctx, acct.AccountNo)

	if _, err := repo.GetByAccountNo(ctx, acct.AccountNo); err != nil {
		t.Fatalf("cold read: %v", err)
	}

	// Change the store behind the cache: the cached view is served until it
	// is invalidated.
	_ = store.WithAccounts(ctx, []int64{acct.AccountNo}, func(tx Tx) error {
		_, err := tx.AdjustBalance(acct.AccountNo, money.FromMajor(5))
		return err
	})
	cached, _ := repo.GetByAccountNo(ctx, acct.AccountNo)
	if cached.Balance != money.FromMajor(10) {
		t.Fatalf("expected cached balance 10.00, got %s", cached.Balance)
	}
	repo.InvalidateAccountViews(ctx, acct.AccountNo)
	fresh, _ := repo.GetByAccountNo(ctx, acct.AccountNo)
	if fresh.Balance != money.FromMajor(15) {
		t.Fatalf("expected fresh balance 15.00, got %s", fresh.Balance)
	}
}
