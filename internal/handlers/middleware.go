package handlers

import (
	"fmt"

	"favlinks/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// CurrentUser resolves the session identity through the strategy and exposes
// it to handlers and templates.
func (h *Handler) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(sessionUserKey).(uint)
		if !ok {
			c.Next()
			return
		}

		user, err := h.strategy.LoadByID(c.Request.Context(), id)
		if errors.Is(err, services.ErrUserNotFound) {
			h.logger.Warn("Session references a missing user", "user_id", id)
			session.Delete(sessionUserKey)
			h.flashRedirect(c, flashErrorMsg, "Your session is no longer valid, please log in again", "/auth/login")
			c.Abort()
			return
		}
		if err != nil {
			h.fail(c, fmt.Errorf("%w: %w", services.ErrAuthentication, err))
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			h.flashRedirect(c, flashErrorMsg, "Please log in to continue", "/auth/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
