package handlers

import (
	"encoding/gob"
	"net/http"
	"net/url"

	"favlinks/internal/config"
	"favlinks/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	SessionCookieName = "favlinks_session"

	sessionUserKey = "user_id"
	currentUserKey = "current_user"

	flashSuccess  = "success_msg"
	flashErrorMsg = "error_msg"
	flashError    = "error"
)

func init() {
	// Flash queues are stored as []interface{}.
	gob.Register([]interface{}{})
}

// NewSessionStore returns the configured session backend. The database store
// keeps sessions in the application schema and purges expired rows.
func NewSessionStore(cfg config.Config, db *gorm.DB) sessions.Store {
	var store sessions.Store
	if cfg.SessionStore == "cookie" {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	} else {
		store = gormsessions.NewStore(db, true, []byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func currentUser(c *gin.Context) *models.SessionUser {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*models.SessionUser); ok {
			return user
		}
	}
	return nil
}

func actorID(c *gin.Context) *uint {
	if user := currentUser(c); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

func flash(c *gin.Context, key, msg string) {
	sessions.Default(c).AddFlash(msg, key)
}

// drainFlashes pops the queue under key. Empty queues are not touched so
// anonymous page views do not mark the session dirty.
func drainFlashes(session sessions.Session, key string) []string {
	if session.Get(key) == nil {
		return nil
	}
	var msgs []string
	for _, f := range session.Flashes(key) {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// render fills the layout fields and drains pending flashes into the page.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	session := sessions.Default(c)
	data["User"] = currentUser(c)
	data["SuccessMsg"] = drainFlashes(session, flashSuccess)
	data["ErrorMsg"] = drainFlashes(session, flashErrorMsg)
	data["Error"] = drainFlashes(session, flashError)

	if err := session.Save(); err != nil {
		h.logger.Error("Failed to save session", "error", err)
	}
	c.HTML(status, name, data)
}

// redirect persists pending session changes before sending the client on.
func (h *Handler) redirect(c *gin.Context, location string) {
	if err := sessions.Default(c).Save(); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) flashRedirect(c *gin.Context, key, msg, location string) {
	flash(c, key, msg)
	h.redirect(c, location)
}

// back redirects to the referring page when it belongs to this site, and to
// fallback otherwise.
func (h *Handler) back(c *gin.Context, fallback string) {
	location := fallback
	if ref, err := url.Parse(c.Request.Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == c.Request.Host) {
		location = ref.RequestURI()
	}
	h.redirect(c, location)
}
