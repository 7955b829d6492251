package handler

import (
	"net/http"

	"notekeeper/internal/apperr"
	"notekeeper/internal/backup"

	"github.com/labstack/echo/v4"
)

// SetBackups enables the backup routes for the given targets. Restoring is
// left to the command line: the database is open while the server runs.
func (h *Handler) SetBackups(m *backup.Manager, targets []backup.Target) {
	h.backups = m
	h.targets = targets
}

func (h *Handler) target(c echo.Context) (backup.Target, error) {
	name := c.Param("target")
	for _, t := range h.targets {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, apperr.NotFound("backup target", name)
}

// Backup uploads a fresh archive to the target named in the path.
func (h *Handler) Backup(c echo.Context) error {
	t, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	name, err := h.backups.Backup(c.Request().Context(), t)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "backup successful", "file": name})
}

func (h *Handler) ListBackups(c echo.Context) error {
	t, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	list, err := h.backups.List(c.Request().Context(), t)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// VerifyBackup downloads a backup and reports the files it holds.
func (h *Handler) VerifyBackup(c echo.Context) error {
	t, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		Filename string `json:"filename"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	files, err := h.backups.Verify(c.Request().Context(), t, req.Filename)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true, "file": req.Filename, "files": files})
}
