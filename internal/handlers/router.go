package handlers

import (
	"fmt"
	"io/fs"
	"net/http"

	"favlinks/internal/middleware"
	"favlinks/internal/services"
	"favlinks/internal/views"
	"favlinks/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SetupRouter mounts the middleware chain and routes. A nil limiter or
// throttle disables that layer.
func (h *Handler) SetupRouter(limiter services.WindowLimiter, throttle *services.IPRateLimiter, store sessions.Store) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(h.cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	tmpl, err := views.Load(web.FS)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	// Middleware
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(middleware.ErrorHandler(h.logger, h.cfg.IsDevelopment()))
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders(h.cfg.IsProduction()))
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter, h.logger))
	}
	r.Use(sessions.Sessions(SessionCookieName, store))
	r.Use(h.CurrentUser())

	credentials := []gin.HandlerFunc{}
	if throttle != nil {
		credentials = append(credentials, middleware.Throttle(throttle))
	}

	// Routes
	r.StaticFS("/static", http.FS(static))
	r.GET("/health", h.Health)

	r.GET("/", h.ShowIndex)

	auth := r.Group("/auth")
	{
		auth.GET("/register", h.ShowRegister)
		auth.POST("/register", append(credentials, h.HandleRegister)...)
		auth.GET("/login", h.ShowLogin)
		auth.POST("/login", append(credentials, h.HandleLogin)...)
		auth.GET("/logout", h.Logout)
	}

	links := r.Group("/links")
	if h.cfg.LinksRequireAuth {
		links.Use(h.AuthRequired())
	}
	{
		links.GET("", h.ListLinks)
		links.GET("/add", h.ShowAddLink)
		links.POST("/add", h.HandleAddLink)
		links.GET("/edit/:id", h.ShowEditLink)
		links.POST("/edit/:id", h.HandleEditLink)
		links.GET("/delete/:id", h.DeleteLink)
	}

	r.NoRoute(h.NotFound)

	return r, nil
}
