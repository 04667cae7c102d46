package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eaglebank/ledger-service/internal/command"
	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/internal/query"
	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

type mockCommands struct {
	DepositFunc  func(ctx context.Context, cmd cqrs.DepositCommand) (*models.BalanceChange, error)
	WithdrawFunc func(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error)
	TransferFunc func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error)
}

func (m *mockCommands) Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.BalanceChange, error) {
	return m.DepositFunc(ctx, cmd)
}

func (m *mockCommands) Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error) {
	return m.WithdrawFunc(ctx, cmd)
}

func (m *mockCommands) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error) {
	return m.TransferFunc(ctx, cmd)
}

type mockQueries struct {
	GetAccountFunc       func(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error)
	ListTransactionsFunc func(ctx context.Context, q cqrs.ListTransactionsQuery) (*models.TransactionPage, error)
}

func (m *mockQueries) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return m.GetAccountFunc(ctx, q)
}

func (m *mockQueries) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) (*models.TransactionPage, error) {
	return m.ListTransactionsFunc(ctx, q)
}

func TestDispatchErrorMapping(t *testing.T) {
	fail := func(err error) *mockCommands {
		return &mockCommands{
			WithdrawFunc: func(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error) {
				return nil, err
			},
		}
	}
	tests := []struct {
		name     string
		commands *mockCommands
		call     ToolCall
		want     string
	}{
		{
			name: "unknown tool",
			call: ToolCall{ToolName: "close_account"},
			want: "Unknown tool",
		},
		{
			name: "missing account",
			call: ToolCall{ToolName: "withdraw", Args: Args{"amount": 10.0}},
			want: "Missing required argument: account_no",
		},
		{
			name: "unparseable amount",
			call: ToolCall{ToolName: "withdraw", Args: Args{"account_no": 1.0, "amount": "lots"}},
			want: "Invalid amount: lots is not a valid amount",
		},
		{
			name:     "insufficient funds",
			commands: fail(&ledger.InsufficientFundsError{AccountNo: 1, Balance: money.MustParse("1500"), Requested: money.MustParse("2000")}),
			call:     ToolCall{ToolName: "withdraw", Args: Args{"account_no": 1.0, "amount": 2000.0}},
			want:     "Insufficient funds: current balance 1500.00, requested 2000.00",
		},
		{
			name:     "not found",
			commands: fail(&ledger.AccountNotFoundError{AccountNo: 999}),
			call:     ToolCall{ToolName: "withdraw", Args: Args{"account_no": 999.0, "amount": 1.0}},
			want:     "Account 999 not found",
		},
		{
			name:     "storage fault hides details",
			commands: fail(ledger.Storage("commit", errors.New("dial tcp 10.0.0.5:5432"))),
			call:     ToolCall{ToolName: "withdraw", Args: Args{"account_no": 1.0, "amount": 1.0}},
			want:     "The ledger is temporarily unavailable, please try again later",
		},
		{
			name: "panic is contained",
			commands: &mockCommands{WithdrawFunc: func(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error) {
				panic("nil map")
			}},
			call: ToolCall{ToolName: "withdraw", Args: Args{"account_no": 1.0, "amount": 1.0}},
			want: "Internal error while processing the request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commands := tt.commands
			if commands == nil {
				commands = &mockCommands{}
			}
			env := NewRouter(commands, &mockQueries{}, "GBP").Dispatch(context.Background(), tt.call)
			if env.Success || env.Error != tt.want || env.Data != nil {
				t.Errorf("envelope = %+v, want error %q", env, tt.want)
			}
		})
	}
}

func TestDispatchAliasesAndArgTypes(t *testing.T) {
	var got cqrs.DepositCommand
	commands := &mockCommands{
		DepositFunc: func(ctx context.Context, cmd cqrs.DepositCommand) (*models.BalanceChange, error) {
			got = cmd
			return &models.BalanceChange{AccountNo: cmd.AccountNo, Name: "Alice", Amount: cmd.Amount, NewBalance: money.MustParse("1500"), Currency: "GBP"}, nil
		},
	}
	r := NewRouter(commands, &mockQueries{}, "GBP")

	calls := []ToolCall{
		{ToolName: "deposit", Args: Args{"account_no": 1.0, "amount": 500.0}},
		{ToolName: "topup_account_tool", Args: Args{"account_no": "1", "amount": "500"}},
		{ToolName: "topup", Args: Args{"account_no": json.Number("1"), "amount": json.Number("500.00")}},
		{ToolName: " deposit ", Args: Args{"account_number": "#1", "amount": "£500"}},
	}
	for _, call := range calls {
		env := r.Dispatch(context.Background(), call)
		if !env.Success {
			t.Fatalf("%+v: %s", call, env.Error)
		}
		if got.AccountNo != 1 || got.Amount != money.MustParse("500") {
			t.Errorf("%+v parsed to %+v", call, got)
		}
		if msg := env.Data["message"]; msg != "Deposited £500.00 into account 1. New balance: £1500.00" {
			t.Errorf("message = %v", msg)
		}
	}
}

func TestDispatchRejectsBadAccountNumbers(t *testing.T) {
	r := NewRouter(&mockCommands{}, &mockQueries{}, "GBP")
	for _, v := range []any{1.5, "abc", -3.0, 0.0, true} {
		env := r.Dispatch(context.Background(), ToolCall{ToolName: "get_account", Args: Args{"account_no": v}})
		if env.Success || !strings.HasPrefix(env.Error, "Invalid account_no") {
			t.Errorf("account_no=%v: %+v", v, env)
		}
	}
}

func TestBankingInfoTool(t *testing.T) {
	r := NewRouter(&mockCommands{}, &mockQueries{}, "GBP")

	env := r.Dispatch(context.Background(), ToolCall{ToolName: "get_banking_info_tool", Args: Args{"query_type": "Interest"}})
	if !env.Success || env.Data["topic"] != "interest_rates" || env.Data["savings_account"] != "3.5% AER" {
		t.Errorf("interest: %+v", env)
	}
	env = r.Dispatch(context.Background(), ToolCall{ToolName: "get_banking_info", Args: Args{"query_type": "new-account"}})
	if env.Data["topic"] != "opening_account" {
		t.Errorf("alias: %+v", env)
	}
	env = r.Dispatch(context.Background(), ToolCall{ToolName: "get_banking_info", Args: Args{"query_type": "crypto"}})
	topics, ok := env.Data["available_topics"].([]string)
	if !env.Success || !ok || len(topics) != 10 {
		t.Errorf("unknown topic: %+v", env)
	}
	env = r.Dispatch(context.Background(), ToolCall{ToolName: "get_banking_info"})
	if env.Data["topic"] != "services" {
		t.Errorf("default topic: %+v", env)
	}
}

func TestDefinitionsCoverEveryTool(t *testing.T) {
	r := NewRouter(&mockCommands{}, &mockQueries{}, "GBP")
	defs := Definitions()
	if len(defs) != len(r.tools) {
		t.Fatalf("%d definitions for %d tools", len(defs), len(r.tools))
	}
	for _, d := range defs {
		if _, ok := r.tools[d.Name]; !ok {
			t.Errorf("definition %q has no tool", d.Name)
		}
		for _, req := range d.Required {
			if _, ok := d.Parameters[req]; !ok {
				t.Errorf("%s: required %q not described", d.Name, req)
			}
		}
	}
	for alias, name := range aliases {
		if _, ok := r.tools[name]; !ok {
			t.Errorf("alias %q points at missing tool %q", alias, name)
		}
	}
}

// End to end over the real ledger: the chat scenarios from intent to envelope.
func TestRouterOverLedger(t *testing.T) {
	store := repository.NewMemoryStore()
	commands := command.NewLedgerCommandService(store, nil, nil, command.Options{})
	queries := query.NewLedgerQueryService(repository.NewAccountReadRepository(store, nil, time.Minute), store)
	r := NewRouter(commands, queries, "GBP")
	ctx := context.Background()

	alice, _ := commands.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "Alice", InitialBalance: money.MustParse("1000")})
	bob, _ := commands.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "Bob"})

	steps := []struct {
		call    ToolCall
		success bool
		check   func(t *testing.T, env Envelope)
	}{
		{ToolCall{ToolName: "deposit", Args: Args{"account_no": float64(alice.AccountNo), "amount": 500.0}}, true, func(t *testing.T, env Envelope) {
			if env.Data["new_balance"] != money.MustParse("1500") {
				t.Errorf("new_balance = %v", env.Data["new_balance"])
			}
		}},
		{ToolCall{ToolName: "withdraw", Args: Args{"account_no": float64(alice.AccountNo), "amount": 2000.0}}, false, func(t *testing.T, env Envelope) {
			if env.Error != "Insufficient funds: current balance 1500.00, requested 2000.00" {
				t.Errorf("error = %q", env.Error)
			}
		}},
		{ToolCall{ToolName: "transfer", Args: Args{"from_account_no": float64(alice.AccountNo), "to_account_no": float64(bob.AccountNo), "amount": 300.0, "to_name": "Robert"}}, false, func(t *testing.T, env Envelope) {
			if !strings.HasPrefix(env.Error, ledger.ErrRecipientMismatch.Error()) {
				t.Errorf("error = %q", env.Error)
			}
		}},
		{ToolCall{ToolName: "transfer_tool", Args: Args{"from_account_no": float64(alice.AccountNo), "to_account_no": float64(bob.AccountNo), "amount": 300.0, "to_name": "bob"}}, true, func(t *testing.T, env Envelope) {
			if env.Data["from_balance"] != money.MustParse("1200") || env.Data["to_balance"] != money.MustParse("300") {
				t.Errorf("data = %+v", env.Data)
			}
		}},
		{ToolCall{ToolName: "transfer", Args: Args{"from_account_no": float64(alice.AccountNo), "to_account_no": float64(alice.AccountNo), "amount": 1.0}}, false, func(t *testing.T, env Envelope) {
			if env.Error != "Cannot transfer to the same account" {
				t.Errorf("error = %q", env.Error)
			}
		}},
		{ToolCall{ToolName: "withdraw", Args: Args{"account_no": float64(alice.AccountNo), "amount": -50.0}}, false, func(t *testing.T, env Envelope) {
			if !strings.HasPrefix(env.Error, "Invalid amount") {
				t.Errorf("error = %q", env.Error)
			}
		}},
		{ToolCall{ToolName: "get_account", Args: Args{"account_no": 999.0}}, false, func(t *testing.T, env Envelope) {
			if env.Error != "Account 999 not found" {
				t.Errorf("error = %q", env.Error)
			}
		}},
		{ToolCall{ToolName: "get_account_tool", Args: Args{"account_no": float64(alice.AccountNo)}}, true, func(t *testing.T, env Envelope) {
			if env.Data["message"] != "Account 1 (Alice) has a balance of £1200.00" {
				t.Errorf("message = %v", env.Data["message"])
			}
		}},
		{ToolCall{ToolName: "list_transactions", Args: Args{"account_no": float64(alice.AccountNo), "limit": 1.0}}, true, func(t *testing.T, env Envelope) {
			txs := env.Data["transactions"].([]models.Transaction)
			if len(txs) != 1 || txs[0].Type != models.TransactionTransferOut || env.Data["next_cursor"] == nil {
				t.Errorf("data = %+v", env.Data)
			}
		}},
	}
	for i, step := range steps {
		env := r.Dispatch(ctx, step.call)
		if env.Success != step.success {
			t.Fatalf("step %d (%s): success=%v error=%q", i, step.call.ToolName, env.Success, env.Error)
		}
		step.check(t, env)
	}

	// The envelope is the wire contract: it must encode cleanly.
	env := r.Dispatch(ctx, ToolCall{ToolName: "get_account", Args: Args{"account_no": 1.0}})
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"balance":1200.00`) {
		t.Errorf("encoded envelope = %s", b)
	}
}
