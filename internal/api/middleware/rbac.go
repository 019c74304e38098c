package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := principalOrError(c.Request.Context()); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := principalOrError(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !p.IsAdmin() {
			abortWithError(c, apperrors.Forbidden(apperrors.CodeForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}

func principalOrError(ctx context.Context) (*Principal, error) {
	if p, ok := GetPrincipal(ctx); ok {
		return p, nil
	}
	if err := getAuthError(ctx); err != nil {
		return nil, err
	}
	return nil, apperrors.Unauthorized(apperrors.CodeUnauthorized, "authentication required")
}

// abortWithError records err for ErrorHandler and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
