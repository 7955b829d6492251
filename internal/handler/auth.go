package handler

import (
	"net/http"

	"notekeeper/internal/model"

	"github.com/labstack/echo/v4"
)

// Register creates an account and logs it in.
func (h *Handler) Register(c echo.Context) error {
	var req model.Registration
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	res, err := h.svc.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c echo.Context) error {
	var req model.Credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	res, err := h.svc.Auth.Login(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Me returns the currently authenticated user.
func (h *Handler) Me(c echo.Context) error {
	u, err := h.svc.Auth.Me(c.Request().Context(), owner(c).Email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
