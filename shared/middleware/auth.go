package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerIDKey = "callerId"

type Claims struct {
	CallerID string `json:"callerId"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies an HS256 bearer token and stores the caller identity
// in the gin context. Authentication itself happens upstream; this only
// establishes who is calling.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		caller := claims.CallerID
		if caller == "" {
			caller = claims.Subject
		}
		if caller == "" {
			RespondWithError(c, http.StatusUnauthorized, "Token carries no caller identity")
			c.Abort()
			return
		}
		c.Set(callerIDKey, caller)
		c.Next()
	}
}

// SignToken issues a token for callerID; used by local tooling and tests.
func SignToken(secret []byte, callerID string, claims jwt.RegisteredClaims) (string, error) {
	if callerID == "" {
		return "", errors.New("caller id is required")
	}
	claims.Subject = callerID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{CallerID: callerID, RegisteredClaims: claims})
	return token.SignedString(secret)
}

// GetCallerID returns the authenticated caller, or "anonymous" when the
// service runs without auth.
func GetCallerID(c *gin.Context) string {
	if v, ok := c.Get(callerIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return "anonymous"
}
