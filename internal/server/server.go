package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tracker/internal/models"
	"tracker/internal/tracker"
)

// Service is the set of tracker operations the handlers call.
type Service interface {
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, ownerID, id string) (models.Project, error)
	CreateProject(ctx context.Context, ownerID string, in models.ProjectInput) (models.Project, error)
	UpdateProject(ctx context.Context, ownerID, id string, p models.ProjectPatch) (models.Project, error)
	DeleteProject(ctx context.Context, ownerID, id string) error
	DuplicateProject(ctx context.Context, ownerID, id string) (models.Project, error)

	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (models.Task, error)
	CreateTask(ctx context.Context, ownerID string, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, p models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	Reorder(ctx context.Context, ownerID string, items []tracker.ReorderItem) ([]models.Task, error)

	Dashboard(ctx context.Context, ownerID string) (tracker.Dashboard, error)
	ListActivity(ctx context.Context, ownerID string, limit int) ([]models.ActivityLog, error)
	Profile(ctx context.Context, ownerID string) (models.User, error)
	UpdateProfile(ctx context.Context, ownerID string, p models.ProfilePatch) (models.User, error)
}

var _ Service = (*tracker.Service)(nil)

// SessionLookup resolves the authenticated owner of a request.
type SessionLookup interface {
	OwnerFromRequest(r *http.Request) (string, error)
}

// Server provides HTTP handlers for the tracker API.
type Server struct {
	engine   *gin.Engine
	svc      Service
	sessions SessionLookup
	logger   *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
// An empty allowedOrigins list allows every origin.
func New(svc Service, sessions SessionLookup, logger *slog.Logger, allowedOrigins []string) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// An explicitly chosen mode, such as gin.TestMode, is left alone.
	if gin.Mode() == gin.DebugMode && os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))
	router.Use(cors.New(corsConfig(allowedOrigins)))

	srv := &Server{
		engine:   router,
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authed := api.Group("", s.requireOwner())

		projects := authed.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":id", s.handleGetProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.POST(":id/duplicate", s.handleDuplicateProject)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.PATCH("reorder", s.handleReorderTasks)
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		authed.GET("/activity", s.handleListActivity)
		authed.GET("/dashboard", s.handleDashboard)
		authed.GET("/me", s.handleGetProfile)
		authed.PUT("/me", s.handleUpdateProfile)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID validates the path identifier as a UUID.
func parseID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return "", false
	}
	return id.String(), true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.logger.Debug("invalid request body", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// respondError maps domain errors to status codes. Unexpected errors are
// logged and answered with a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validation *tracker.ValidationError
		reorder    *tracker.ReorderError
		missing    *tracker.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &reorder):
		c.JSON(http.StatusNotFound, gin.H{"error": "one or more tasks not found", "failed": reorder.IDs})
	case errors.As(err, &missing):
		c.JSON(http.StatusNotFound, gin.H{"error": missing.Error()})
	default:
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondSuccess writes the payload, or only the status when it is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
