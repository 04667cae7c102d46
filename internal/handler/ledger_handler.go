package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/middleware"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

// LedgerCommander defines the write-side operations used by LedgerHandler.
type LedgerCommander interface {
	CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error)
	Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.BalanceChange, error)
	Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.BalanceChange, error)
	Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error)
	ValidateRecipient(ctx context.Context, cmd cqrs.ValidateRecipientCommand) (*models.Account, error)
}

// LedgerQuerier defines the read-side operations used by LedgerHandler.
type LedgerQuerier interface {
	GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error)
	ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) (*models.TransactionPage, error)
}

type LedgerHandler struct {
	commands LedgerCommander
	queries  LedgerQuerier
}

type CreateAccountRequest struct {
	Name           string       `json:"name" validate:"required,max=100"`
	InitialBalance money.Amount `json:"initial_balance"`
	SortCode       string       `json:"sort_code" validate:"omitempty,sortcode"`
}

type MoneyRequest struct {
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description" validate:"max=140"`
}

type TransferRequest struct {
	FromAccountNo int64        `json:"from_account_no" validate:"required,gt=0"`
	ToAccountNo   int64        `json:"to_account_no" validate:"required,gt=0"`
	Amount        money.Amount `json:"amount"`
	ToName        string       `json:"to_name" validate:"max=100"`
	ToSortCode    string       `json:"to_sort_code" validate:"omitempty,sortcode"`
	Description   string       `json:"description" validate:"max=140"`
}

type ValidateRecipientRequest struct {
	SortCode string `json:"sort_code" validate:"required,sortcode"`
	Name     string `json:"name" validate:"max=100"`
}

type ListTransactionsParams struct {
	Order  string `form:"order" validate:"omitempty,oneof=asc desc"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1,max=500"`
	Cursor int64  `form:"cursor" validate:"omitempty,gt=0"`
}

type ValidateRecipientResponse struct {
	Valid     bool   `json:"valid"`
	AccountNo int64  `json:"account_no"`
	Name      string `json:"name"`
	SortCode  string `json:"sort_code"`
}

func NewLedgerHandler(commands LedgerCommander, queries LedgerQuerier) *LedgerHandler {
	return &LedgerHandler{commands: commands, queries: queries}
}

// accountNoParam parses :accountNo, responding 400 when it is not a positive integer.
func accountNoParam(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("accountNo"), 10, 64)
	if err != nil || n <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid account number")
		return 0, false
	}
	return n, true
}

// bind decodes and validates a JSON body, responding 400 on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if !bind(c, &req) {
		return
	}
	acct, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		Name:           req.Name,
		SortCode:       req.SortCode,
		InitialBalance: req.InitialBalance,
		RequestedBy:    middleware.GetCallerID(c),
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acct.ToView())
}

func (h *LedgerHandler) GetAccount(c *gin.Context) {
	accountNo, ok := accountNoParam(c)
	if !ok {
		return
	}
	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountNo: accountNo})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *LedgerHandler) Deposit(c *gin.Context) {
	accountNo, ok := accountNoParam(c)
	if !ok {
		return
	}
	var req MoneyRequest
	if !bind(c, &req) {
		return
	}
	change, err := h.commands.Deposit(c.Request.Context(), cqrs.DepositCommand{
		AccountNo:   accountNo,
		Amount:      req.Amount,
		Description: req.Description,
		RequestedBy: middleware.GetCallerID(c),
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *LedgerHandler) Withdraw(c *gin.Context) {
	accountNo, ok := accountNoParam(c)
	if !ok {
		return
	}
	var req MoneyRequest
	if !bind(c, &req) {
		return
	}
	change, err := h.commands.Withdraw(c.Request.Context(), cqrs.WithdrawCommand{
		AccountNo:   accountNo,
		Amount:      req.Amount,
		Description: req.Description,
		RequestedBy: middleware.GetCallerID(c),
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		FromAccountNo:     req.FromAccountNo,
		ToAccountNo:       req.ToAccountNo,
		Amount:            req.Amount,
		RecipientName:     req.ToName,
		RecipientSortCode: req.ToSortCode,
		Description:       req.Description,
		RequestedBy:       middleware.GetCallerID(c),
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) ValidateRecipient(c *gin.Context) {
	accountNo, ok := accountNoParam(c)
	if !ok {
		return
	}
	var req ValidateRecipientRequest
	if !bind(c, &req) {
		return
	}
	acct, err := h.commands.ValidateRecipient(c.Request.Context(), cqrs.ValidateRecipientCommand{
		AccountNo: accountNo,
		Name:      req.Name,
		SortCode:  req.SortCode,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ValidateRecipientResponse{
		Valid:     true,
		AccountNo: acct.AccountNo,
		Name:      acct.Name,
		SortCode:  acct.SortCode,
	})
}

func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	accountNo, ok := accountNoParam(c)
	if !ok {
		return
	}
	var params ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	if validationErrors := middleware.ValidateRequest(params); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	page, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		AccountNo: accountNo,
		Order:     params.Order,
		Limit:     params.Limit,
		Cursor:    params.Cursor,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
