package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/middleware"
)

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(cqrs.IssueTokenCommand) (string, time.Time, error)
}

type AuthHandler struct {
	issuer TokenIssuer
}

type TokenRequest struct {
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if !bind(c, &req) {
		return
	}
	token, expires, err := h.issuer.Issue(cqrs.IssueTokenCommand{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires})
}
