package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/pkg/logger"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyPrincipal contextKey = "principal"
	ctxKeyAuthError contextKey = "auth_error"
)

// RequestID injects a unique request ID into the context, the response
// header and the request-scoped logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" || len(rid) > 128 {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)

		ctx := context.WithValue(c.Request.Context(), ctxKeyRequestID, rid)
		ctx = logger.WithContext(ctx, zap.String("request_id", rid))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// Principal is the authenticated caller, as carried in the session token.
type Principal struct {
	UserID int64
	Email  string
	Name   string
	Role   domain.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// SetUserContext stores the authenticated caller in ctx and tags the
// request logger with the user id.
func SetUserContext(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, ctxKeyPrincipal, p)
	return logger.WithContext(ctx, zap.Int64("user_id", p.UserID))
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*Principal)
	return p, ok && p != nil
}

// GetUserID returns the caller's user id, or 0 when anonymous.
func GetUserID(ctx context.Context) int64 {
	if p, ok := GetPrincipal(ctx); ok {
		return p.UserID
	}
	return 0
}

func setAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxKeyAuthError, err)
}

func getAuthError(ctx context.Context) error {
	err, _ := ctx.Value(ctxKeyAuthError).(error)
	return err
}
