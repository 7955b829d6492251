package handler

import (
	authmw "notekeeper/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ServerOptions tunes the middleware chain. Zero values use the defaults.
type ServerOptions struct {
	BodyLimit   string   // e.g. "2M"
	CORSOrigins []string // empty allows any origin
}

// NewServer returns an echo instance with the standard middleware chain and
// every API route registered.
func NewServer(h *Handler, opts ServerOptions) *echo.Echo {
	if opts.BodyLimit == "" {
		opts.BodyLimit = "1M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(authmw.ZapLogger())
	e.Use(middleware.Recover())
	if len(opts.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: opts.CORSOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(opts.BodyLimit))
	e.Use(middleware.Gzip())

	h.Routes(e)
	return e
}
