package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/storage/sqlite"
	"taskhub/internal/task"
)

// Context keys set by the actor middleware.
const (
	ctxActor = "actor"
	ctxRole  = "role"
)

// Server provides the HTTP adapters around the task engine. Handlers parse
// transport input, call the engine or store, and render typed errors; no
// business rules live here.
type Server struct {
	engine     *gin.Engine
	core       *task.Engine
	store      *sqlite.Store
	logger     *slog.Logger
	adminEmail string
}

// New constructs the HTTP server with routes and middleware configured.
// adminEmail is the bootstrap administrator: that identity gets the admin
// role on first sight, everyone else starts as a member.
func New(core *task.Engine, store *sqlite.Store, logger *slog.Logger, adminEmail string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:     router,
		core:       core,
		store:      store,
		logger:     logger,
		adminEmail: adminEmail,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authed := api.Group("")
		authed.Use(s.requireActor())
		{
			tasks := authed.Group("/tasks")
			{
				tasks.GET("", s.handleListTasks)
				tasks.POST("", s.handleCreateTask)
				tasks.GET(":id", s.handleGetTask)
				tasks.PUT(":id", s.handleUpdateTask)
				tasks.DELETE(":id", s.handleDeleteTask)
			}

			users := authed.Group("/users")
			users.Use(s.requireAdmin())
			{
				users.GET("", s.handleListUsers)
				users.GET(":id", s.handleGetUser)
				users.POST("", s.handleUpsertUser)
				users.PUT(":id", s.handleUpdateUserStatus)
				users.DELETE(":id", s.handleDeactivateUser)
			}
		}
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireActor resolves the caller identity supplied by the upstream
// authenticator into role and account facts. Identities are auto-created on
// first sight; deactivated accounts are rejected before anything else runs.
func (s *Server) requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-User-Email")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized - missing authentication"})
			return
		}

		role := models.RoleMember
		if email == s.adminEmail {
			role = models.RoleAdmin
		}
		user, err := s.store.EnsureUser(c.Request.Context(), email, role)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			c.Abort()
			return
		}
		if user.Status != models.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
			return
		}

		c.Set(ctxActor, user.Email)
		c.Set(ctxRole, user.Role)
		c.Next()
	}
}

// requireAdmin guards the user administration routes.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden - admin only"})
			return
		}
		c.Next()
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondDomainError maps a typed core error onto a transport status and
// body. Assignee violations carry their offending lists; store failures stay
// opaque to the caller.
func (s *Server) respondDomainError(c *gin.Context, err error) {
	var ae *task.AssigneeError
	if errors.As(err, &ae) {
		body := gin.H{"error": ae.Error()}
		if len(ae.NonExistent) > 0 {
			body["nonExistentUsers"] = ae.NonExistent
		}
		if len(ae.Inactive) > 0 {
			body["inactiveUsers"] = ae.Inactive
		}
		if len(ae.Admins) > 0 {
			body["adminUsers"] = ae.Admins
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	kind, ok := task.KindOf(err)
	if !ok {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	switch kind {
	case task.KindForbidden:
		s.respondError(c, http.StatusForbidden, err)
	case task.KindNotFound:
		s.respondError(c, http.StatusNotFound, err)
	case task.KindStoreFailure:
		s.logger.Error("storage failure", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	case task.KindInvalidIdentity:
		var de *task.Error
		body := gin.H{"error": err.Error()}
		if errors.As(err, &de) {
			body["invalidEmails"] = de.Values
		}
		c.JSON(http.StatusBadRequest, body)
	default:
		s.respondError(c, http.StatusBadRequest, err)
	}
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
