package handler

import (
	"net/http"

	"notekeeper/internal/model"

	"github.com/labstack/echo/v4"
)

// ListEvents returns all events, or those occurring on ?date= when given.
func (h *Handler) ListEvents(c echo.Context) error {
	var day model.Day
	if q := c.QueryParam("date"); q != "" {
		d, err := model.ParseDay(q)
		if err != nil {
			return fail(c, err)
		}
		day = d
	}
	events, err := h.svc.Events.List(c.Request().Context(), owner(c).Email, day, h.loc)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) CreateEvent(c echo.Context) error {
	var req model.EventDraft
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	e, err := h.svc.Events.Create(c.Request().Context(), owner(c).Email, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateEvent(c echo.Context) error {
	var req model.EventDraft
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	e, err := h.svc.Events.Update(c.Request().Context(), owner(c).Email, c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEvent(c echo.Context) error {
	if err := h.svc.Events.Delete(c.Request().Context(), owner(c).Email, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
