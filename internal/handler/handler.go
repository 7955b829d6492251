package handler

import (
	"net/http"
	"time"

	"notekeeper/internal/backup"
	"notekeeper/internal/markdown"
	authmw "notekeeper/internal/middleware"
	"notekeeper/internal/service"
	"notekeeper/internal/version"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *service.Services
	md  *markdown.Renderer
	loc *time.Location

	backups *backup.Manager
	targets []backup.Target
}

// NewHandler creates the REST handlers. loc is used to bucket events by day.
func NewHandler(svc *service.Services, md *markdown.Renderer, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{svc: svc, md: md, loc: loc}
}

// Routes registers the API on e.
func (h *Handler) Routes(e *echo.Echo) {
	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, version.GetInfo())
	})
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.JWTAuth(h.svc.Tokens))

	protected.GET("/auth/me", h.Me)

	protected.GET("/notes", h.ListNotes)
	protected.POST("/notes", h.CreateNote)
	protected.GET("/notes/search", h.SearchNotes)
	protected.GET("/notes/:id", h.GetNote)
	protected.PUT("/notes/:id", h.UpdateNote)
	protected.DELETE("/notes/:id", h.DeleteNote)

	protected.GET("/tasks", h.ListTasks)
	protected.POST("/tasks", h.CreateTask)
	protected.PUT("/tasks/:id", h.UpdateTask)
	protected.DELETE("/tasks/:id", h.DeleteTask)

	protected.GET("/events", h.ListEvents)
	protected.POST("/events", h.CreateEvent)
	protected.PUT("/events/:id", h.UpdateEvent)
	protected.DELETE("/events/:id", h.DeleteEvent)

	protected.POST("/markdown", h.RenderMarkdown)

	if h.backups != nil {
		protected.POST("/backup/:target", h.Backup)
		protected.GET("/backup/list/:target", h.ListBackups)
		protected.POST("/backup/verify/:target", h.VerifyBackup)
	}
}
