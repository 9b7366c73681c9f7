package handlers

import (
	"net/http"

	"favlinks/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func (h *Handler) ShowRegister(c *gin.Context) {
	h.render(c, http.StatusOK, "auth/register", gin.H{"Title": "Register"})
}

func (h *Handler) HandleRegister(c *gin.Context) {
	var form RegisterForm
	if !h.bindForm(c, &form, registerMessages, "/auth/register") {
		return
	}

	_, err := h.users.Register(c.Request.Context(), form.Username, form.Password, requestMeta(c))
	switch {
	case errors.Is(err, services.ErrUserExists):
		h.flashRedirect(c, flashErrorMsg, "Username is already taken", "/auth/register")
	case err != nil:
		h.logger.Error("Failed to register user", "username", form.Username, "error", err)
		h.flashRedirect(c, flashErrorMsg, "Error registering the user", "/auth/register")
	default:
		h.flashRedirect(c, flashSuccess, "Registration successful. Please log in.", "/auth/login")
	}
}

func (h *Handler) ShowLogin(c *gin.Context) {
	h.render(c, http.StatusOK, "auth/login", gin.H{"Title": "Log in"})
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var form LoginForm
	if !h.bindForm(c, &form, loginMessages, "/auth/login") {
		return
	}

	meta := requestMeta(c)
	user, err := h.strategy.Verify(c.Request.Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.audit.LogAction(nil, "LOGIN_FAILED", "", map[string]string{"username": form.Username, "reason": "unknown user"}, meta)
		h.flashRedirect(c, flashError, "User not found", "/auth/login")
		return
	case errors.Is(err, services.ErrIncorrectPassword):
		h.audit.LogAction(nil, "LOGIN_FAILED", "", map[string]string{"username": form.Username, "reason": "incorrect password"}, meta)
		h.flashRedirect(c, flashError, "Incorrect password", "/auth/login")
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		h.fail(c, err)
		return
	}

	h.audit.LogAction(&user.ID, "LOGIN", user.Username, nil, meta)
	c.Redirect(http.StatusFound, "/links")
}

func (h *Handler) Logout(c *gin.Context) {
	actor := actorID(c)

	session := sessions.Default(c)
	session.Clear()
	session.AddFlash("You have been logged out", flashSuccess)
	if err := session.Save(); err != nil {
		h.fail(c, err)
		return
	}

	if actor != nil {
		h.audit.LogAction(actor, "LOGOUT", "", nil, requestMeta(c))
	}
	c.Redirect(http.StatusFound, "/auth/login")
}
