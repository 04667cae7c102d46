package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the ledger and tool endpoints. auth, when given, runs
// in front of every /v1 route except the token endpoint, which is only
// mounted when authHandler is non-nil.
func RegisterRoutes(router *gin.Engine, ledgerHandler *LedgerHandler, toolHandler *ToolHandler, authHandler *AuthHandler, auth ...gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "ledger-service"})
	})

	if authHandler != nil {
		router.POST("/v1/auth/token", authHandler.IssueToken)
	}

	v1 := router.Group("/v1", auth...)
	{
		v1.POST("/accounts", ledgerHandler.CreateAccount)
		v1.GET("/accounts/:accountNo", ledgerHandler.GetAccount)
		v1.POST("/accounts/:accountNo/deposit", ledgerHandler.Deposit)
		v1.POST("/accounts/:accountNo/withdraw", ledgerHandler.Withdraw)
		v1.POST("/accounts/:accountNo/validate", ledgerHandler.ValidateRecipient)
		v1.GET("/accounts/:accountNo/transactions", ledgerHandler.ListTransactions)
		v1.POST("/transfers", ledgerHandler.Transfer)

		v1.GET("/tools", toolHandler.ListTools)
		v1.POST("/tools/call", toolHandler.CallTool)
	}
}
