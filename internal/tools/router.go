package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

// ErrUnknownTool is the envelope error for unrecognised tool names.
const ErrUnknownTool = "Unknown tool"

// LedgerCommands is satisfied by *command.LedgerCommandService.
type LedgerCommands interface {
	Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.BalanceChange, error)
	Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error)
	Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error)
}

// LedgerQueries is satisfied by *query.LedgerQueryService.
type LedgerQueries interface {
	GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error)
	ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) (*models.TransactionPage, error)
}

// ToolCall is a structured intent produced by the external NLU step.
type ToolCall struct {
	ToolName string `json:"tool_name"`
	Args     Args   `json:"args"`
	CallerID string `json:"-"`
}

// Envelope is the response contract of every tool call.
type Envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Stage is where a dispatch ended up.
type Stage string

const (
	StageReceived  Stage = "received"
	StageValidated Stage = "validated"
	StageExecuted  Stage = "executed"
	StageFormatted Stage = "formatted"
)

// action is a validated call, ready to run against the ledger. It returns a
// formatter for the result.
type action func(ctx context.Context) (func() map[string]any, error)

type tool func(call ToolCall) (action, error)

// Router dispatches tool calls to the ledger and turns every outcome into an
// Envelope. Dispatch never panics and never returns an unformatted error.
type Router struct {
	commands LedgerCommands
	queries  LedgerQueries
	currency string
	tools    map[string]tool
}

func NewRouter(commands LedgerCommands, queries LedgerQueries, currency string) *Router {
	r := &Router{commands: commands, queries: queries, currency: currency}
	r.tools = map[string]tool{
		ToolGetAccount:       r.getAccount,
		ToolDeposit:          r.deposit,
		ToolWithdraw:         r.withdraw,
		ToolTransfer:         r.transfer,
		ToolListTransactions: r.listTransactions,
		ToolGetBankingInfo:   r.bankingInfo,
	}
	return r
}

// Dispatch runs call through Received, Validated, Executed and Formatted. A
// failure at any stage short-circuits to an error envelope.
func (r *Router) Dispatch(ctx context.Context, call ToolCall) (env Envelope) {
	stage := StageReceived
	name := CanonicalName(strings.TrimSpace(call.ToolName))
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Tool call panicked", "tool", name, "stage", stage, "panic", p)
			env = Envelope{Success: false, Error: ledger.UserMessage(fmt.Errorf("panic: %v", p))}
		}
	}()

	t, ok := r.tools[name]
	if !ok {
		slog.Warn("Unknown tool", "tool", call.ToolName, "caller", call.CallerID)
		return Envelope{Success: false, Error: ErrUnknownTool}
	}
	if call.Args == nil {
		call.Args = Args{}
	}

	run, err := t(call)
	if err != nil {
		return r.fail(name, stage, call, err)
	}
	stage = StageValidated

	format, err := run(ctx)
	if err != nil {
		return r.fail(name, stage, call, err)
	}
	stage = StageExecuted

	data := format()
	stage = StageFormatted
	slog.Info("Tool call", "tool", name, "stage", stage, "caller", call.CallerID, "success", true)
	return Envelope{Success: true, Data: data}
}

func (r *Router) fail(name string, stage Stage, call ToolCall, err error) Envelope {
	kind := ledger.Kind(err)
	msg := ledger.UserMessage(err)
	if kind == ledger.KindInternal && stage == StageReceived {
		// Argument errors are written for end users.
		msg = err.Error()
	}
	level := slog.LevelInfo
	if kind == ledger.KindStorageFault || (kind == ledger.KindInternal && stage != StageReceived) {
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, "Tool call failed",
		"tool", name, "stage", stage, "caller", call.CallerID, "kind", kind, "error", err)
	return Envelope{Success: false, Error: msg}
}

func (r *Router) money(a money.Amount) string {
	return money.Format(a, r.currency)
}

func (r *Router) getAccount(call ToolCall) (action, error) {
	accountNo, err := call.Args.AccountNo("account_no", "account_number", "accountNo")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (func() map[string]any, error) {
		view, err := r.queries.GetAccount(ctx, cqrs.GetAccountQuery{AccountNo: accountNo})
		if err != nil {
			return nil, err
		}
		return func() map[string]any {
			return map[string]any{
				"account_no": view.AccountNo,
				"name":       view.Name,
				"sort_code":  view.SortCode,
				"balance":    view.Balance,
				"currency":   view.Currency,
				"message":    fmt.Sprintf("Account %d (%s) has a balance of %s", view.AccountNo, view.Name, r.money(view.Balance)),
			}
		}, nil
	}, nil
}

func (r *Router) deposit(call ToolCall) (action, error) {
	accountNo, amount, err := accountAndAmount(call.Args)
	if err != nil {
		return nil, err
	}
	description := call.Args.String("description", "reference")
	return func(ctx context.Context) (func() map[string]any, error) {
		change, err := r.commands.Deposit(ctx, cqrs.DepositCommand{
			AccountNo: accountNo, Amount: amount, Description: description, RequestedBy: call.CallerID,
		})
		if err != nil {
			return nil, err
		}
		return func() map[string]any {
			return map[string]any{
				"account_no":       change.AccountNo,
				"name":             change.Name,
				"amount_deposited": change.Amount,
				"new_balance":      change.NewBalance,
				"currency":         change.Currency,
				"transaction_id":   change.Transaction.ID,
				"message": fmt.Sprintf("Deposited %s into account %d. New balance: %s",
					r.money(change.Amount), change.AccountNo, r.money(change.NewBalance)),
			}
		}, nil
	}, nil
}

func (r *Router) withdraw(call ToolCall) (action, error) {
	accountNo, amount, err := accountAndAmount(call.Args)
	if err != nil {
		return nil, err
	}
	description := call.Args.String("description", "reference")
	return func(ctx context.Context) (func() map[string]any, error) {
		change, err := r.commands.Withdraw(ctx, cqrs.WithdrawCommand{
			AccountNo: accountNo, Amount: amount, Description: description, RequestedBy: call.CallerID,
		})
		if err != nil {
			return nil, err
		}
		return func() map[string]any {
			return map[string]any{
				"account_no":       change.AccountNo,
				"name":             change.Name,
				"amount_withdrawn": change.Amount,
				"new_balance":      change.NewBalance,
				"currency":         change.Currency,
				"transaction_id":   change.Transaction.ID,
				"message": fmt.Sprintf("Withdrew %s from account %d. New balance: %s",
					r.money(change.Amount), change.AccountNo, r.money(change.NewBalance)),
			}
		}, nil
	}, nil
}

func (r *Router) transfer(call ToolCall) (action, error) {
	from, err := call.Args.AccountNo("from_account_no", "from_account", "from")
	if err != nil {
		return nil, err
	}
	to, err := call.Args.AccountNo("to_account_no", "to_account", "to")
	if err != nil {
		return nil, err
	}
	amount, err := call.Args.Amount("amount")
	if err != nil {
		return nil, err
	}
	cmd := cqrs.TransferCommand{
		FromAccountNo:     from,
		ToAccountNo:       to,
		Amount:            amount,
		RecipientName:     call.Args.String("to_name", "recipient_name", "payee_name"),
		RecipientSortCode: call.Args.String("to_sort_code", "recipient_sort_code", "sort_code"),
		Description:       call.Args.String("description", "reference"),
		RequestedBy:       call.CallerID,
	}
	return func(ctx context.Context) (func() map[string]any, error) {
		res, err := r.commands.Transfer(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return func() map[string]any {
			return map[string]any{
				"from_account_no": res.FromAccountNo,
				"to_account_no":   res.ToAccountNo,
				"to_name":         res.ToName,
				"amount":          res.Amount,
				"from_balance":    res.FromBalance,
				"to_balance":      res.ToBalance,
				"currency":        res.Currency,
				"message": fmt.Sprintf("Transferred %s from account %d to %s (account %d). New balance: %s",
					r.money(res.Amount), res.FromAccountNo, res.ToName, res.ToAccountNo, r.money(res.FromBalance)),
			}
		}, nil
	}, nil
}

func (r *Router) listTransactions(call ToolCall) (action, error) {
	accountNo, err := call.Args.AccountNo("account_no", "account_number", "accountNo")
	if err != nil {
		return nil, err
	}
	limit, err := call.Args.Int(10, "limit")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (func() map[string]any, error) {
		page, err := r.queries.ListTransactions(ctx, cqrs.ListTransactionsQuery{AccountNo: accountNo, Limit: limit})
		if err != nil {
			return nil, err
		}
		return func() map[string]any {
			data := map[string]any{
				"account_no":   page.AccountNo,
				"transactions": page.Transactions,
				"count":        len(page.Transactions),
				"message":      fmt.Sprintf("Found %d transactions for account %d", len(page.Transactions), page.AccountNo),
			}
			if page.NextCursor != nil {
				data["next_cursor"] = *page.NextCursor
			}
			return data
		}, nil
	}, nil
}

func (r *Router) bankingInfo(call ToolCall) (action, error) {
	query := call.Args.String("query_type", "topic")
	if query == "" {
		query = "services"
	}
	return func(ctx context.Context) (func() map[string]any, error) {
		return func() map[string]any {
			topic, info, ok := LookupBankingInfo(query)
			if !ok {
				return map[string]any{"available_topics": BankingTopics()}
			}
			data := make(map[string]any, len(info)+1)
			for k, v := range info {
				data[k] = v
			}
			data["topic"] = topic
			return data
		}, nil
	}, nil
}

func accountAndAmount(args Args) (int64, money.Amount, error) {
	accountNo, err := args.AccountNo("account_no", "account_number", "accountNo")
	if err != nil {
		return 0, 0, err
	}
	amount, err := args.Amount("amount")
	if err != nil {
		return 0, 0, err
	}
	return accountNo, amount, nil
}
