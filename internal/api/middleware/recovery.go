package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 JSON error. Panics caused by the client
// hanging up are dropped without a response.
func Recovery(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			if err, ok := recovered.(error); ok && clientGone(err) {
				logger.Debug("Client went away during %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
				c.Abort()
				return
			}

			log := logger.WithField("path", c.Request.URL.Path)
			if gin.IsDebugging() {
				log.Error("panic recovered: %v\n%s", recovered, debug.Stack())
			} else {
				log.Error("panic recovered: %v", recovered)
			}

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred", "code": "INTERNAL_ERROR"})
		}()

		c.Next()
	}
}

func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
