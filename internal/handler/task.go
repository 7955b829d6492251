package handler

import (
	"net/http"
	"time"

	"notekeeper/internal/model"

	"github.com/labstack/echo/v4"
)

// ListTasks returns the tasks of ?date=, defaulting to today.
func (h *Handler) ListTasks(c echo.Context) error {
	day := model.Day(c.QueryParam("date"))
	if day == "" {
		day = model.DayOf(time.Now().In(h.loc))
	}
	tasks, err := h.svc.Tasks.List(c.Request().Context(), owner(c).Email, day)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req model.TaskDraft
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	t, err := h.svc.Tasks.Create(c.Request().Context(), owner(c).Email, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	var req model.TaskPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	t, err := h.svc.Tasks.Update(c.Request().Context(), owner(c).Email, c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if err := h.svc.Tasks.Delete(c.Request().Context(), owner(c).Email, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
