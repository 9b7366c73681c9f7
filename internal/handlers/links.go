package handlers

import (
	"net/http"
	"strconv"

	"favlinks/internal/models"
	"favlinks/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// linkID parses the :id path parameter. Malformed ids report false.
func linkID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (f LinkForm) input() services.LinkInput {
	return services.LinkInput{
		Title:       f.Title,
		URL:         f.URL,
		Description: f.Description,
	}
}

func (h *Handler) ListLinks(c *gin.Context) {
	links, err := h.links.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list links", "error", err)
		flash(c, flashErrorMsg, "Error loading the links")
		links = []models.Link{}
	}
	h.render(c, http.StatusOK, "links/list", gin.H{
		"Title": "Links",
		"Links": links,
	})
}

func (h *Handler) ShowAddLink(c *gin.Context) {
	h.render(c, http.StatusOK, "links/add", gin.H{"Title": "Add link"})
}

func (h *Handler) HandleAddLink(c *gin.Context) {
	var form LinkForm
	if !h.bindForm(c, &form, linkMessages, "/links/add") {
		return
	}

	if _, err := h.links.Create(c.Request.Context(), form.input(), actorID(c), requestMeta(c)); err != nil {
		h.logger.Error("Failed to save link", "error", err)
		h.flashRedirect(c, flashErrorMsg, "Error saving the link", "/links/add")
		return
	}
	h.flashRedirect(c, flashSuccess, "Link saved successfully", "/links")
}

func (h *Handler) ShowEditLink(c *gin.Context) {
	id, ok := linkID(c)
	if !ok {
		h.flashRedirect(c, flashErrorMsg, "Link not found", "/links")
		return
	}

	link, err := h.links.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		h.flashRedirect(c, flashErrorMsg, "Link not found", "/links")
	case err != nil:
		h.logger.Error("Failed to load link", "id", id, "error", err)
		h.flashRedirect(c, flashErrorMsg, "Error loading the link", "/links")
	default:
		h.render(c, http.StatusOK, "links/edit", gin.H{
			"Title": "Edit link",
			"Link":  link,
		})
	}
}

func (h *Handler) HandleEditLink(c *gin.Context) {
	id, ok := linkID(c)
	if !ok {
		h.flashRedirect(c, flashErrorMsg, "Link not found", "/links")
		return
	}

	editPath := "/links/edit/" + strconv.FormatUint(uint64(id), 10)
	var form LinkForm
	if !h.bindForm(c, &form, linkMessages, editPath) {
		return
	}

	err := h.links.Update(c.Request.Context(), id, form.input(), actorID(c), requestMeta(c))
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		h.flashRedirect(c, flashErrorMsg, "Link not found", "/links")
	case err != nil:
		h.logger.Error("Failed to update link", "id", id, "error", err)
		h.flashRedirect(c, flashErrorMsg, "Error updating the link", editPath)
	default:
		h.flashRedirect(c, flashSuccess, "Link updated successfully", "/links")
	}
}

func (h *Handler) DeleteLink(c *gin.Context) {
	if id, ok := linkID(c); ok {
		if err := h.links.Delete(c.Request.Context(), id, actorID(c), requestMeta(c)); err != nil {
			h.logger.Error("Failed to delete link", "id", id, "error", err)
			h.flashRedirect(c, flashErrorMsg, "Error removing the link", "/links")
			return
		}
	}
	h.flashRedirect(c, flashSuccess, "Link removed successfully", "/links")
}
