// Package middleware holds the gin middleware chain of the v1 API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/apperror"
	"lotledger/pkg/logger"
)

// Recovery converts a handler panic into an INTERNAL_ERROR response.
// Clients see the request id; the stack is logged.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			reqID := c.GetString(KeyRequestID)
			logger.Error(c.Request.Context(), "handler panic",
				"panic", r,
				"request_id", reqID,
				"stack", string(debug.Stack()),
			)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", r)).WithDetail("request_id", reqID)
			_ = c.Error(appErr)
			c.Abort()
		}()
		c.Next()
	}
}
