// Package handler exposes the services over HTTP.
package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/middleware"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/internal/service"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

// Handler holds the services the routes call into.
type Handler struct {
	Tasks         *service.TaskService
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Accounts      *service.AccountService
	Auth          *service.AuthService
	// Ping reports storage health for /healthz.
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

// Register mounts every route on r.
func Register(r gin.IRouter, h *Handler, authn *middleware.Authenticator) {
	r.GET("/healthz", h.health)

	limits := middleware.DefaultValidationConfig()
	r.Use(limits.LimitBody())

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/refresh", h.refresh)

	public := r.Group("/", authn.Optional())
	public.GET("/tasks", h.feed)
	public.GET("/tasks/info", middleware.RequireTaskKey("key"), h.taskInfo)
	public.GET("/account", h.account)

	private := r.Group("/", authn.Required())
	private.POST("/tasks", h.createTask)
	private.DELETE("/tasks", middleware.RequireTaskKey("key"), h.deleteTask)
	private.POST("/tasks/info", middleware.RequireTaskKey("key"), h.transition)
	private.POST("/tasks/edit", middleware.RequireTaskKey("task-id"), h.editTask)
	private.GET("/mytasks", h.myTasks)
	private.GET("/messages", middleware.RequireTaskKey("task-id"), h.messages)
	private.POST("/messages", middleware.RequireTaskKey("task-id"), h.postMessage)
	private.DELETE("/messages", middleware.RequireTaskKey("task-id"), h.purgeMessages)
	private.GET("/notifications", h.notifications)
	private.POST("/account", h.updateAccount)

	admin := r.Group("/admin", authn.Required(), middleware.RequireRole(models.RoleAdmin))
	admin.GET("/stats", h.stats)
	admin.GET("/tasks", h.adminTasks)
	admin.POST("/tasks", h.recordAdminTask)
}

func (h *Handler) health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError translates service errors into HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, service.ErrIllegalTransition):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrProfileIncomplete):
		code = http.StatusPreconditionFailed
	}

	msg := "internal server error"
	var svcErr *service.Error
	if code != http.StatusInternalServerError && errors.As(err, &svcErr) {
		msg = svcErr.Msg
	}
	if code == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", middleware.GetClientInfoFromContext(c.Request.Context()).RequestID),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, api.Error{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.Error{Error: msg})
}

func userID(c *gin.Context) string {
	return middleware.GetUserIDFromContext(c.Request.Context())
}

// queryFloat parses an optional finite float parameter.
func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return &v, true
}
