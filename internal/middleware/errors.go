package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"favlinks/internal/services"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
)

// ErrorHandler reports the last error recorded by a handler once the chain
// has run. Development responses carry the message and stack as JSON;
// everywhere else a generic page is rendered.
func ErrorHandler(logger *slog.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrAuthentication) {
			status = http.StatusUnauthorized
		}

		logger.Error("Request failed",
			"request_id", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"error", err,
		)

		if c.Writer.Written() {
			return
		}

		if development {
			c.JSON(status, gin.H{
				"error":   true,
				"message": err.Error(),
				"stack":   fmt.Sprintf("%+v", err),
			})
			return
		}

		c.HTML(status, "errors/500", gin.H{
			"Title":  "Error",
			"Status": status,
		})
	}
}

// Recovery turns a panic into a recorded error so ErrorHandler answers it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				_ = c.Error(pkgerrors.Errorf("panic: %v", r))
				c.Abort()
			}
		}()
		c.Next()
	}
}
