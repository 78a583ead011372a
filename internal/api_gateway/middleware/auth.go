package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

// PrincipalKey is the gin context key holding the authenticated *access.Principal
const PrincipalKey = "principal"

// TokenVerifier resolves a bearer token to the user it was issued for
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Auth requires a valid bearer session token and loads the caller's area grants
func Auth(log *slog.Logger, tokens TokenVerifier, principals access.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := logger.FromContext(c.Request.Context(), log)

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			reqLogger.Warn("Rejected session token", "error", err)
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session")
			return
		}

		principal, err := principals.LoadPrincipal(c.Request.Context(), userID)
		if err != nil {
			var notFound access.ErrUserNotFound
			if errors.As(err, &notFound) {
				reqLogger.Warn("Session for unknown or inactive user", "user_id", userID)
				abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session")
				return
			}
			reqLogger.Error("Failed to load principal", "user_id", userID, "error", err)
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal server error occurred")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal set by Auth
func PrincipalFrom(c *gin.Context) (*access.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*access.Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
