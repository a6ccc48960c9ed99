package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"
	"taskmanager/internal/pipeline"
	"taskmanager/internal/validation"

	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Update(ctx context.Context, req models.UpdateUserRequest) (*models.User, error)
	RetrieveByUsername(ctx context.Context, username string) (*models.User, error)
}

type TaskService interface {
	Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, req models.UpdateTaskRequest) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	RetrieveByStatus(ctx context.Context, status models.Status) ([]models.Task, error)
	RetrieveByUsername(ctx context.Context, username string) ([]models.Task, error)
	RetrieveBySubject(ctx context.Context, subject string) (*models.Task, error)
}

type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Users  UserService
	Tasks  TaskService
	Auth   AuthService
	Tokens *auth.Tokens
	// Health is optional; without it /healthz always reports ok.
	Health HealthChecker
}

type TaskAPI struct {
	httpSrv *http.Server
	deps    Dependencies
	metrics *Metrics
	maxBody int64
}

// NewTaskAPI returns nil when a required dependency is missing.
func NewTaskAPI(deps Dependencies, cfg *Config) *TaskAPI {
	if deps.Users == nil || deps.Tasks == nil || deps.Auth == nil || deps.Tokens == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	TAPI := &TaskAPI{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:    deps,
		metrics: NewMetrics(),
		maxBody: int64(cfg.MaxBodyBytes),
	}
	if TAPI.maxBody <= 0 {
		TAPI.maxBody = defaultMaxBodyBytes
	}
	TAPI.configRoutes()

	return TAPI
}

// Start blocks serving HTTP until Shutdown is called.
func (TAPI *TaskAPI) Start() error {
	logging.Info().Str("addr", TAPI.httpSrv.Addr).Msg("task API listening")
	if err := TAPI.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (TAPI *TaskAPI) Shutdown(ctx context.Context) error {
	return TAPI.httpSrv.Shutdown(ctx)
}

func (TAPI *TaskAPI) Handler() http.Handler {
	return TAPI.httpSrv.Handler
}

func (TAPI *TaskAPI) configRoutes() {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(GzipResponseCompress(), Recovery(), RequestContext(), TAPI.metrics.Middleware(), GzipRequestDecompress(TAPI.maxBody))

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": messages.RouteNotFound})
	})
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"message": messages.MethodNotAllowed})
	})

	router.GET("/healthz", pipeline.Handler(TAPI.health))
	router.GET("/metrics", gin.WrapH(TAPI.metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/login", pipeline.Handler(
			auth.LoginRoute(),
			pipeline.Validate(validation.Login()),
			TAPI.login,
		))
	}

	users := api.Group("/users")
	{
		users.POST("/register", pipeline.Handler(pipeline.Validate(validation.UserRegister()), TAPI.register))
		users.PUT("/update", TAPI.guarded(validation.UserUpdate(), TAPI.updateUser))
	}

	tasks := api.Group("/tasks")
	{
		tasks.POST("", TAPI.guarded(validation.TaskCreate(), TAPI.createTask))
		tasks.PUT("", TAPI.guarded(validation.TaskUpdate(), TAPI.updateTask))
		tasks.DELETE("", TAPI.guarded(validation.TaskDelete(), TAPI.deleteTask))
		tasks.GET("/status", TAPI.guarded(validation.TaskFetchByStatus(), TAPI.getTasksByStatus))
		tasks.GET("/username", TAPI.guarded(validation.TaskFetchByUsername(), TAPI.getTasksByUsername))
		tasks.GET("/subject", TAPI.guarded(validation.TaskFetchBySubject(), TAPI.getTaskBySubject))
	}

	TAPI.httpSrv.Handler = router
}

// guarded validates first, then runs the authentication gate, then the
// controller.
func (TAPI *TaskAPI) guarded(rs validation.RuleSet, controller pipeline.Stage) gin.HandlerFunc {
	stages := []pipeline.Stage{pipeline.Validate(rs)}
	stages = append(stages, auth.Gate(TAPI.deps.Tokens, TAPI.deps.Users)...)
	stages = append(stages, controller)
	return pipeline.Handler(stages...)
}

func (TAPI *TaskAPI) health(ctx *gin.Context) *pipeline.Response {
	if TAPI.deps.Health != nil {
		if err := TAPI.deps.Health.Ping(ctx.Request.Context()); err != nil {
			logging.Ctx(ctx.Request.Context()).Error().Err(err).Msg("health check failed")
			return pipeline.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		}
	}
	return pipeline.JSON(http.StatusOK, gin.H{"status": "ok"})
}
