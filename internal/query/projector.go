package query

import (
	"context"
	"log/slog"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/models"
)

// ViewRefresher is satisfied by *repository.AccountReadRepository.
type ViewRefresher interface {
	Refresh(ctx context.Context, accountNo int64) (*models.AccountView, error)
}

// AccountViewProjector keeps the cached account views warm from the ledger
// event stream. It always re-reads the store, so redelivered or out-of-order
// events cannot roll a view back.
type AccountViewProjector struct {
	views ViewRefresher
}

func NewAccountViewProjector(views ViewRefresher) *AccountViewProjector {
	return &AccountViewProjector{views: views}
}

// HandleLedgerEvent is an events.Handler.
func (p *AccountViewProjector) HandleLedgerEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountOpened, events.FundsDeposited, events.FundsWithdrawn, events.TransferCompleted:
	default:
		slog.Debug("Projector ignoring event", "type", event.Type, "id", event.ID)
		return nil
	}

	for _, accountNo := range event.AffectedAccounts() {
		if _, err := p.views.Refresh(ctx, accountNo); err != nil {
			if ledger.Kind(err) == ledger.KindAccountNotFound {
				slog.Warn("Projector skipping unknown account", "account_no", accountNo, "event_id", event.ID)
				continue
			}
			return err
		}
	}
	return nil
}
