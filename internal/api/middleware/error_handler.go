// Package middleware provides the gin middleware chain for the geo-events API:
// request ids, session authentication, role checks, rate limiting, metrics
// and centralized error rendering.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// ErrorHandler renders errors recorded with c.Error() as a JSON body of the
// form {code, kind, message, field_errors?, params?}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.Ctx(c.Request.Context())

		if appErr, ok := apperrors.IsAppError(err); ok {
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				log.Error("Request failed",
					zap.String("code", appErr.Code),
					zap.Int("status", appErr.HTTPStatus),
					zap.Error(appErr.Err),
				)
			} else {
				log.Debug("Request rejected",
					zap.String("code", appErr.Code),
					zap.String("message", appErr.Message),
					zap.Int("status", appErr.HTTPStatus),
				)
			}
			body := gin.H{
				"code":    appErr.Code,
				"kind":    appErr.Kind(),
				"message": appErr.Message,
			}
			if len(appErr.FieldErrors) > 0 {
				body["field_errors"] = appErr.FieldErrors
			}
			if len(appErr.Params) > 0 {
				body["params"] = appErr.Params
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		log.Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apperrors.CodeInternal,
			"kind":    apperrors.KindInternal,
			"message": "An internal error occurred",
		})
	}
}
