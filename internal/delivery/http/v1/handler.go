package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tracker/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleRequestLogger(c *gin.Context)
	HandleHealthCheck(c *gin.Context)

	HandleGetTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleGetStatusSummary(c *gin.Context)
}

// Pinger reports whether the storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlerImpl struct {
	logger  zerolog.Logger
	auth    services.AuthService
	tasks   services.TaskService
	storage Pinger
	env     string
	version string
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
	storage Pinger,
	env string,
	version string,
) Handler {
	return &handlerImpl{
		logger:  logger,
		auth:    authService,
		tasks:   taskService,
		storage: storage,
		env:     env,
		version: version,
	}
}

// RegisterRoutes mounts the API on router. Task routes require a bearer
// token; extra middlewares run before everything else.
func RegisterRoutes(router gin.IRouter, h Handler, middlewares ...gin.HandlerFunc) {
	api := router.Group("/api")
	api.Use(h.HandleRequestLogger)
	api.Use(middlewares...)

	api.GET("/healthcheck", h.HandleHealthCheck)

	userRouter := api.Group("/user")
	userRouter.POST("", h.HandleRegister)
	userRouter.POST("/login", h.HandleLogin)

	taskRouter := api.Group("/task", h.HandleAuthMiddleware)
	taskRouter.GET("", h.HandleGetTasks)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.GET("/status-summary", h.HandleGetStatusSummary)
	taskRouter.GET("/:id", h.HandleGetTask)
	taskRouter.PUT("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)
}
