package repository

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eaglebank/ledger-service/shared/models"
	sharedredis "github.com/eaglebank/ledger-service/shared/redis"
)

const accountViewKeyPrefix = "ledger:account:view:"

// AccountReadRepository serves account views from the Redis read model and
// falls back to the authoritative store, warming the cache on every cold
// read. With no Redis client it reads straight from the store.
type AccountReadRepository struct {
	store AccountStore
	cache *sharedredis.ViewCache[models.AccountView]
}

func NewAccountReadRepository(store AccountStore, redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	r := &AccountReadRepository{store: store}
	if redisClient != nil {
		r.cache = sharedredis.NewViewCache[models.AccountView](redisClient, accountViewKeyPrefix, ttl)
	}
	return r
}

func accountViewID(accountNo int64) string {
	return strconv.FormatInt(accountNo, 10)
}

// GetByAccountNo returns an AccountView, trying Redis first.
func (r *AccountReadRepository) GetByAccountNo(ctx context.Context, accountNo int64) (*models.AccountView, error) {
	if r.cache == nil {
		return r.load(ctx, accountNo)
	}
	return r.cache.GetOrLoad(ctx, accountViewID(accountNo), func(ctx context.Context) (*models.AccountView, error) {
		return r.load(ctx, accountNo)
	})
}

// Refresh reads the account from the store and rewrites its cached view.
func (r *AccountReadRepository) Refresh(ctx context.Context, accountNo int64) (*models.AccountView, error) {
	view, err := r.load(ctx, accountNo)
	if err != nil {
		return nil, err
	}
	r.CacheAccountView(ctx, view)
	return view, nil
}

func (r *AccountReadRepository) load(ctx context.Context, accountNo int64) (*models.AccountView, error) {
	acct, err := r.store.GetAccount(ctx, accountNo)
	if err != nil {
		return nil, err
	}
	return acct.ToView(), nil
}

func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, accountViewID(view.AccountNo), view)
}

// InvalidateAccountViews drops cached views after their accounts changed.
func (r *AccountReadRepository) InvalidateAccountViews(ctx context.Context, accountNos ...int64) {
	if r.cache == nil || len(accountNos) == 0 {
		return
	}
	ids := make([]string, len(accountNos))
	for i, no := range accountNos {
		ids[i] = accountViewID(no)
	}
	r.cache.Delete(ctx, ids...)
}
