package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

// RequireAuth verifies the bearer token and stores the caller in the context
func RequireAuth(tokens *auth.TokenManager, revoker auth.Revoker, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Unauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			apierrors.Unauthorized(c, "Invalid authorization header")
			return
		}

		principal, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		revoked, err := revoker.IsRevoked(c.Request.Context(), principal.TokenID)
		if err != nil {
			log.WithError(err).WithField("request_id", c.GetString(constants.ContextKeyRequestID)).
				Warn("token revocation lookup failed")
			apierrors.Unauthorized(c, "Unable to verify token")
			return
		}
		if revoked {
			apierrors.Unauthorized(c, "Token has been revoked")
			return
		}

		c.Set(constants.ContextKeyPrincipal, principal)
		c.Next()
	}
}

// RequireRoles rejects callers holding none of roles. It must run after RequireAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if !principal.HasAnyRole(roles...) {
			apierrors.Forbidden(c, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated caller from context
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := v.(*auth.Principal)
	return principal, ok && principal != nil
}
