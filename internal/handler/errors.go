package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/middleware"
)

func statusForKind(kind string) int {
	switch kind {
	case ledger.KindAccountNotFound:
		return http.StatusNotFound
	case ledger.KindInvalidAmount, ledger.KindSameAccountTransfer, ledger.KindRecipientMismatch, ledger.KindInvalidAccount:
		return http.StatusBadRequest
	case ledger.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ledger.KindStorageFault:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithLedgerError maps a ledger error to its HTTP status and message.
func respondWithLedgerError(c *gin.Context, err error) {
	kind := ledger.Kind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("Ledger request failed", "path", c.FullPath(), "kind", kind, "error", err,
			"request_id", middleware.GetRequestID(c))
	}
	_ = c.Error(err)
	middleware.RespondWithKind(c, status, kind, ledger.UserMessage(err))
}
