// Command statement prints an account statement from a running ledger
// service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/eaglebank/ledger-service/shared/middleware"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

var (
	baseURL   = flag.String("addr", "http://localhost:8085", "Ledger service base URL")
	accountNo = flag.Int64("account", 0, "Account number")
	limit     = flag.Int("limit", 20, "Number of most recent transactions to show")
	token     = flag.String("token", os.Getenv("LEDGER_TOKEN"), "Bearer token, if the service requires one")
)

func main() {
	flag.Parse()
	if *accountNo <= 0 {
		log.Fatal("Account number is required. Use --account to specify it.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := &client{base: *baseURL, token: *token, http: &http.Client{}}
	view, err := c.account(ctx, *accountNo)
	if err != nil {
		log.Fatalf("Failed to load account: %v", err)
	}
	page, err := c.transactions(ctx, *accountNo, *limit)
	if err != nil {
		log.Fatalf("Failed to load transactions: %v", err)
	}
	renderStatement(os.Stdout, view, page.Transactions)
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) account(ctx context.Context, accountNo int64) (*models.AccountView, error) {
	var view models.AccountView
	if err := c.get(ctx, fmt.Sprintf("/v1/accounts/%d", accountNo), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *client) transactions(ctx context.Context, accountNo int64, limit int) (*models.TransactionPage, error) {
	var page models.TransactionPage
	path := fmt.Sprintf("/v1/accounts/%d/transactions?order=desc&limit=%d", accountNo, limit)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body middleware.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Message == "" {
			body.Message = resp.Status
		}
		return fmt.Errorf("%s", body.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// renderStatement prints newest-first entries with the balance after each,
// working back from the current balance.
func renderStatement(w io.Writer, view *models.AccountView, txs []models.Transaction) {
	fmt.Fprintf(w, "%s  account %d  sort code %s\n\n", view.Name, view.AccountNo, view.SortCode)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Date", "Type", "Description", "Amount", "Balance"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	running := view.Balance
	for _, tx := range txs {
		signed := tx.Type.Signed(tx.Amount)
		table.Append([]string{
			strconv.FormatInt(tx.ID, 10),
			tx.CreatedAt.Format("2006-01-02 15:04"),
			string(tx.Type),
			tx.Description,
			money.Format(signed, view.Currency),
			money.Format(running, view.Currency),
		})
		running -= signed
	}
	table.SetFooter([]string{"", "", "", "", "Balance", money.Format(view.Balance, view.Currency)})
	table.Render()
}
