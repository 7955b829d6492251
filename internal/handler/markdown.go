package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RenderMarkdown renders note content to HTML for preview.
func (h *Handler) RenderMarkdown(c echo.Context) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	out, err := h.md.Render(req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"html": out})
}
