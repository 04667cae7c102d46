package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
	"github.com/eaglebank/ledger-service/shared/utils"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// ViewInvalidator is satisfied by *repository.AccountReadRepository.
type ViewInvalidator interface {
	InvalidateAccountViews(ctx context.Context, accountNos ...int64)
}

type Options struct {
	DefaultSortCode string
	Currency        string
}

// LedgerCommandService validates and applies every balance mutation. Each
// operation runs as one store unit, so the balance change and its log entries
// commit together or not at all. Cache invalidation and events follow the
// commit and never fail the operation.
type LedgerCommandService struct {
	store     repository.Store
	views     ViewInvalidator
	publisher EventPublisher
	opts      Options
}

// NewLedgerCommandService wires the service; views and publisher may be nil.
func NewLedgerCommandService(store repository.Store, views ViewInvalidator, publisher EventPublisher, opts Options) *LedgerCommandService {
	if opts.DefaultSortCode == "" {
		opts.DefaultSortCode = "11-11-11"
	}
	if opts.Currency == "" {
		opts.Currency = "GBP"
	}
	return &LedgerCommandService{store: store, views: views, publisher: publisher, opts: opts}
}

func (s *LedgerCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ledger.ErrInvalidAccount)
	}
	if cmd.InitialBalance.IsNegative() {
		return nil, ledger.InvalidAmount("initial balance cannot be negative")
	}
	sortCode := s.opts.DefaultSortCode
	if strings.TrimSpace(cmd.SortCode) != "" {
		if !utils.ValidateSortCode(cmd.SortCode) {
			return nil, fmt.Errorf("%w: sort code %q must be six digits", ledger.ErrInvalidAccount, cmd.SortCode)
		}
		sortCode = cmd.SortCode
	}

	acct, err := s.store.CreateAccount(ctx, models.NewAccount{
		Name:           name,
		SortCode:       utils.FormatSortCode(sortCode),
		OpeningBalance: cmd.InitialBalance,
		Currency:       s.opts.Currency,
	})
	if err != nil {
		return nil, ledger.Storage("create account", err)
	}

	slog.Info("Account opened", "account_no", acct.AccountNo, "requested_by", cmd.RequestedBy)
	s.publish(ctx, events.AccountOpened, events.AccountOpenedEvent{
		AccountNo:      acct.AccountNo,
		Name:           acct.Name,
		SortCode:       acct.SortCode,
		OpeningBalance: acct.OpeningBalance.Minor(),
	})
	return acct, nil
}

func (s *LedgerCommandService) Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.BalanceChange, error) {
	if !cmd.Amount.IsPositive() {
		return nil, ledger.InvalidAmount("deposit amount must be greater than zero")
	}
	change, err := s.applySingle(ctx, cmd.AccountNo, models.TransactionDeposit, cmd.Amount, describe(cmd.Description, "Deposit"))
	if err != nil {
		return nil, err
	}
	s.afterSingle(ctx, events.FundsDeposited, change, cmd.RequestedBy)
	return change, nil
}

func (s *LedgerCommandService) Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error) {
	if !cmd.Amount.IsPositive() {
		return nil, ledger.InvalidAmount("withdrawal amount must be greater than zero")
	}
	change, err := s.applySingle(ctx, cmd.AccountNo, models.TransactionWithdraw, cmd.Amount, describe(cmd.Description, "Withdrawal"))
	if err != nil {
		return nil, err
	}
	s.afterSingle(ctx, events.FundsWithdrawn, change, cmd.RequestedBy)
	return change, nil
}

func (s *LedgerCommandService) applySingle(ctx context.Context, accountNo int64, typ models.TransactionType, amount money.Amount, description string) (*models.BalanceChange, error) {
	entry := &models.Transaction{
		AccountNo:   accountNo,
		Type:        typ,
		Amount:      amount,
		Description: description,
		Status:      models.StatusCompleted,
	}
	var acct *models.Account
	err := s.store.WithAccounts(ctx, []int64{accountNo}, func(tx repository.Tx) error {
		if _, err := tx.AdjustBalance(accountNo, typ.Signed(amount)); err != nil {
			return err
		}
		if err := tx.Append(entry); err != nil {
			return err
		}
		var err error
		acct, err = tx.Account(accountNo)
		return err
	})
	if err != nil {
		return nil, ledger.Storage(string(typ), err)
	}
	return &models.BalanceChange{
		AccountNo:   accountNo,
		Name:        acct.Name,
		Amount:      amount,
		NewBalance:  acct.Balance,
		Currency:    acct.Currency,
		Transaction: *entry,
	}, nil
}

func (s *LedgerCommandService) afterSingle(ctx context.Context, eventType string, change *models.BalanceChange, requestedBy string) {
	slog.Info("Balance changed",
		"type", change.Transaction.Type,
		"account_no", change.AccountNo,
		"amount", change.Amount.String(),
		"new_balance", change.NewBalance.String(),
		"transaction_id", change.Transaction.ID,
		"requested_by", requestedBy,
	)
	if s.views != nil {
		s.views.InvalidateAccountViews(ctx, change.AccountNo)
	}
	s.publish(ctx, eventType, events.FundsMovedEvent{
		TransactionID: change.Transaction.ID,
		AccountNo:     change.AccountNo,
		Amount:        change.Amount.Minor(),
		NewBalance:    change.NewBalance.Minor(),
		RequestedBy:   requestedBy,
	})
}

// Transfer debits the source and credits the destination in one unit. The
// recipient check runs against the locked destination before any balance
// changes, and a failed debit aborts the whole transfer.
func (s *LedgerCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error) {
	if cmd.FromAccountNo == cmd.ToAccountNo {
		return nil, ledger.ErrSameAccount
	}
	if !cmd.Amount.IsPositive() {
		return nil, ledger.InvalidAmount("transfer amount must be greater than zero")
	}

	from, to := cmd.FromAccountNo, cmd.ToAccountNo
	debit := &models.Transaction{
		AccountNo:        from,
		Type:             models.TransactionTransferOut,
		Amount:           cmd.Amount,
		RelatedAccountNo: &to,
		Status:           models.StatusCompleted,
	}
	credit := &models.Transaction{
		AccountNo:        to,
		Type:             models.TransactionTransferIn,
		Amount:           cmd.Amount,
		RelatedAccountNo: &from,
		Status:           models.StatusCompleted,
	}
	result := &models.TransferResult{FromAccountNo: from, ToAccountNo: to, Amount: cmd.Amount}

	err := s.store.WithAccounts(ctx, []int64{from, to}, func(tx repository.Tx) error {
		src, err := tx.Account(from)
		if err != nil {
			return err
		}
		dst, err := tx.Account(to)
		if err != nil {
			return err
		}
		if err := ledger.MatchRecipient(dst, cmd.RecipientName, cmd.RecipientSortCode); err != nil {
			return err
		}

		debit.Description = describe(cmd.Description, "Transfer to "+dst.Name)
		credit.Description = describe(cmd.Description, "Transfer from "+src.Name)

		if result.FromBalance, err = tx.AdjustBalance(from, debit.Type.Signed(cmd.Amount)); err != nil {
			return err
		}
		if result.ToBalance, err = tx.AdjustBalance(to, credit.Type.Signed(cmd.Amount)); err != nil {
			return err
		}
		if err := tx.Append(debit); err != nil {
			return err
		}
		if err := tx.Append(credit); err != nil {
			return err
		}
		result.ToName = dst.Name
		result.Currency = src.Currency
		return nil
	})
	if err != nil {
		return nil, ledger.Storage("transfer", err)
	}
	result.Debit, result.Credit = *debit, *credit

	slog.Info("Transfer completed",
		"from_account_no", from,
		"to_account_no", to,
		"amount", cmd.Amount.String(),
		"debit_id", debit.ID,
		"credit_id", credit.ID,
		"requested_by", cmd.RequestedBy,
	)
	if s.views != nil {
		s.views.InvalidateAccountViews(ctx, from, to)
	}
	s.publish(ctx, events.TransferCompleted, events.TransferCompletedEvent{
		DebitTransactionID:  debit.ID,
		CreditTransactionID: credit.ID,
		FromAccountNo:       from,
		ToAccountNo:         to,
		Amount:              cmd.Amount.Minor(),
		FromBalance:         result.FromBalance.Minor(),
		ToBalance:           result.ToBalance.Minor(),
		RequestedBy:         cmd.RequestedBy,
	})
	return result, nil
}

// ValidateRecipient reports whether the payee details match the account.
func (s *LedgerCommandService) ValidateRecipient(ctx context.Context, cmd cqrs.ValidateRecipientCommand) (*models.Account, error) {
	acct, err := s.store.GetAccount(ctx, cmd.AccountNo)
	if err != nil {
		return nil, ledger.Storage("get account", err)
	}
	if err := ledger.MatchRecipient(acct, cmd.Name, cmd.SortCode); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *LedgerCommandService) publish(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, eventType, data); err != nil {
		slog.Warn("Failed to publish ledger event", "type", eventType, "error", err)
	}
}

func describe(description, fallback string) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	return fallback
}
