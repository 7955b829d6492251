package handler

import (
	"errors"
	"net/http"

	"notekeeper/internal/apperr"
	authmw "notekeeper/internal/middleware"
	"notekeeper/internal/model"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// fail writes err with the status matching its kind.
func fail(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		return c.JSON(status, errorResponse{Error: "internal error"})
	}

	body := errorResponse{Error: err.Error()}
	var fe *apperr.FieldError
	if errors.As(err, &fe) {
		body.Field = fe.Field
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}

// owner returns the authenticated user of the request.
func owner(c echo.Context) model.User {
	return authmw.Claims(c).Owner()
}
