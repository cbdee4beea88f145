package middleware

import (
	"net/http"
	"strings"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/access"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/logger"
	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextKeyIdentity holds the verified access.Identity
	ContextKeyIdentity = "auth_identity"
	// ContextKeyCaller holds the request's access.Caller
	ContextKeyCaller = "auth_caller"
)

// AuthConfig holds authentication middleware configuration
type AuthConfig struct {
	Verifier access.TokenVerifier
	Resolver *appaccess.Resolver
	Logger   *zap.Logger
}

// Auth returns a middleware that verifies the bearer token and attaches
// the identity and caller to the request context. Verification fails
// closed: if the signing authority cannot be reached the request is
// rejected, never waved through.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		identity, err := cfg.Verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if err == shared.ErrDependencyUnavailable {
				cfg.Logger.Error("token verification unavailable")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable,
					dto.NewErrorResponse(dto.ErrCodeDependencyUnavailable, "Authentication is temporarily unavailable"))
				return
			}
			abortUnauthorized(c, "Invalid bearer token")
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Set(ContextKeyCaller, cfg.Resolver.CallerFor(identity))

		// Attach the verified subject to the request context so request
		// and SQL logs carry it from here on.
		ctx, _ := logger.WithSubject(c.Request.Context(), logger.FromContext(c.Request.Context()), identity.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin returns a middleware that rejects non-admin callers. It
// must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			abortUnauthorized(c, "Not authenticated")
			return
		}
		if !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Administrator role required"))
			return
		}
		c.Next()
	}
}

// GetIdentity returns the verified identity stored by Auth
func GetIdentity(c *gin.Context) (access.Identity, bool) {
	value, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return access.Identity{}, false
	}
	identity, ok := value.(access.Identity)
	return identity, ok
}

// GetCaller returns the caller stored by Auth
func GetCaller(c *gin.Context) (access.Caller, bool) {
	value, exists := c.Get(ContextKeyCaller)
	if !exists {
		return access.Caller{}, false
	}
	caller, ok := value.(access.Caller)
	return caller, ok
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}
