package handlers

import (
	"log/slog"
	"strings"

	"favlinks/internal/config"
	"favlinks/internal/repository"
	"favlinks/internal/services"
	"favlinks/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type Handler struct {
	cfg      config.Config
	logger   *slog.Logger
	pool     *repository.Pool
	users    *services.UserService
	strategy services.Strategy
	links    *services.LinkService
	audit    *services.AuditService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	pool *repository.Pool,
	users *services.UserService,
	strategy services.Strategy,
	links *services.LinkService,
	audit *services.AuditService,
) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		users:    users,
		strategy: strategy,
		links:    links,
		audit:    audit,
	}
}

// fail hands err to the global error handler and stops the chain.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(errors.WithStack(err))
	c.Abort()
}

// bindForm decodes, trims and validates the submission into form. On
// failure it flashes the joined messages, redirects back and returns false.
func (h *Handler) bindForm(c *gin.Context, form normalizer, messages map[string]string, fallback string) bool {
	if err := c.ShouldBind(form); err != nil {
		h.logger.Debug("Malformed form submission", "path", c.Request.URL.Path, "error", err)
		h.flashRedirect(c, flashErrorMsg, "Invalid form submission", fallback)
		return false
	}
	form.normalize()

	if err := validator.GetValidator().Struct(form); err != nil {
		flash(c, flashErrorMsg, strings.Join(validator.Messages(err, messages), ", "))
		h.back(c, fallback)
		return false
	}
	return true
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
