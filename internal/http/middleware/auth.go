package middleware

import (
	"net/http"
	"strings"

	"stream_ledger/internal/apperr"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated caller.
const UserIDKey = "user_id"

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// JWT rejects requests without a valid bearer token.
func JWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperr.Unauthenticated("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, apperr.Unauthenticated("invalid authorization header"))
			return
		}

		userID, err := tokens.Parse(parts[1])
		if err != nil {
			abort(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the caller set by JWT.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func abort(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err.Code), gin.H{
		"success": false,
		"code":    err.Code,
		"message": err.Message,
	})
}

func tooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}
