package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"characterai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler returns a middleware that renders the first error a handler
// pushed with c.Error as {"error": message, "code": code}
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := FromError(c.Errors[0].Err)

		log := logger.FromContext(c)
		args := []any{
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status_code", appErr.StatusCode,
			"error_code", appErr.Code,
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.LogError(appErr, "Request error", args...)
		} else {
			log.Warn("Request rejected", append(args, "message", appErr.Message)...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.StatusCode, appErr)
	}
}

// RecoveryWithLogger returns a middleware that recovers from any panics
// and logs them with the request-scoped logger
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				logger.FromContext(c).Error("Panic recovered",
					"error", fmt.Sprintf("%v", r),
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				appErr := NewInternalServerError(CodeServerPanic, "The server encountered an unexpected error")
				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("Panic: %v", r)
				}
				c.AbortWithStatusJSON(appErr.StatusCode, appErr)
			}
		}()

		c.Next()
	}
}
