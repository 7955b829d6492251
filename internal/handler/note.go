package handler

import (
	"net/http"

	"notekeeper/internal/model"

	"github.com/labstack/echo/v4"
)

// ListNotes returns active notes, or trashed ones with ?trash=true.
func (h *Handler) ListNotes(c echo.Context) error {
	trashed := c.QueryParam("trash") == "true"
	notes, err := h.svc.Notes.List(c.Request().Context(), owner(c).Email, trashed)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) SearchNotes(c echo.Context) error {
	notes, err := h.svc.Notes.Search(c.Request().Context(), owner(c).Email, c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) GetNote(c echo.Context) error {
	n, err := h.svc.Notes.Get(c.Request().Context(), owner(c).Email, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) CreateNote(c echo.Context) error {
	var req model.NoteDraft
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	n, err := h.svc.Notes.Create(c.Request().Context(), owner(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}

// UpdateNote patches title, content and the deleted flag. Soft delete and
// restore go through here.
func (h *Handler) UpdateNote(c echo.Context) error {
	var req model.NotePatch
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	n, err := h.svc.Notes.Update(c.Request().Context(), owner(c).Email, c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// DeleteNote removes a note permanently.
func (h *Handler) DeleteNote(c echo.Context) error {
	if err := h.svc.Notes.Delete(c.Request().Context(), owner(c).Email, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
