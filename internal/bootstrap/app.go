package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	httpHandler "pixel-board/internal/handler/http"
	wsHandler "pixel-board/internal/handler/websocket"
	"pixel-board/internal/hub"
	gormpersistence "pixel-board/internal/infra/persistence/gorm"
	"pixel-board/internal/infra/setup"
	redisstate "pixel-board/internal/infra/state/redis"
	"pixel-board/internal/middleware"
	"pixel-board/internal/service"
	"pixel-board/internal/tasks"
	"pixel-board/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// snapshotCheckSchedule is how often the scheduler enqueues the archive check.
const snapshotCheckSchedule = "@every 5m"

// App holds every component of the running server.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
}

// NewApp loads the configuration and wires the application.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		// logrus is not configured yet
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := NewLogger(cfg)
	log.Info("Configuration loaded successfully")

	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Redis and Asynq clients initialized")

	userRepo := gormpersistence.NewGormUserRepository(db)
	boardRepo := gormpersistence.NewGormBoardRepository(db)
	actionRepo := gormpersistence.NewGormActionRepository(db)
	snapshotRepo := gormpersistence.NewGormSnapshotRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)

	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	boardService := service.NewBoardService(boardRepo, stateRepo, cfg.GridSize)
	editorService := service.NewEditorService(boardRepo, stateRepo, asynqClient, cfg.Editor)
	snapshotService := service.NewSnapshotService(snapshotRepo, stateRepo, actionRepo, editorService)
	log.Info("Services initialized")

	hubInstance := hub.NewHub(editorService)

	workerServer := worker.NewWorkerServer(
		redisClientOpt,
		cfg.WorkerCount,
		worker.NewActionPersistenceHandler(actionRepo),
		worker.NewSnapshotCheckHandler(editorService, snapshotService, hubInstance, worker.DefaultMaxIdle),
		log,
	)

	router := NewRouter(cfg, log, Handlers{
		Auth:   httpHandler.NewAuthHandler(authService),
		Board:  httpHandler.NewBoardHandler(boardService, editorService),
		Editor: httpHandler.NewEditorHandler(editorService, snapshotService),
		WS:     wsHandler.NewWebSocketHandler(hubInstance, editorService, cfg.AllowedOrigin),
	}, stateRepo)
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

// NewLogger builds the application logger: JSON in production, colored
// text otherwise.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	// components log through the package-level logger
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	return log
}

// Handlers groups the transport handlers mounted by NewRouter.
type Handlers struct {
	Auth   *httpHandler.AuthHandler
	Board  *httpHandler.BoardHandler
	Editor *httpHandler.EditorHandler
	WS     *wsHandler.WebSocketHandler
}

// NewRouter mounts the HTTP and WebSocket routes.
func NewRouter(cfg *Config, log *logrus.Logger, h Handlers, limiter middleware.RateLimiter) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORS(cfg.AllowedOrigin))
	router.Use(middleware.RateLimit(limiter, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
	}

	boards := api.Group("/boards")
	boards.Use(middleware.Auth(cfg.JWTSecret))
	{
		boards.POST("", h.Board.CreateBoard)
		boards.GET("", h.Board.ListBoards)
		boards.GET("/:boardId", h.Board.GetBoard)
		boards.DELETE("/:boardId", h.Board.DeleteBoard)

		boards.POST("/:boardId/paint", h.Editor.Paint)
		boards.POST("/:boardId/erase", h.Editor.Erase)
		boards.POST("/:boardId/fill", h.Editor.Fill)
		boards.PUT("/:boardId/context", h.Editor.SetContext)
		boards.POST("/:boardId/undo", h.Editor.Undo)
		boards.POST("/:boardId/clear", h.Editor.Clear)
		boards.POST("/:boardId/save", h.Editor.Save)
		boards.POST("/:boardId/load", h.Editor.Load)
		boards.GET("/:boardId/export", h.Editor.Export)

		boards.GET("/:boardId/snapshots", h.Editor.ListSnapshots)
		boards.POST("/:boardId/snapshots", h.Editor.CreateSnapshot)
		boards.POST("/:boardId/snapshots/:snapshotId/restore", h.Editor.RestoreSnapshot)
	}

	wsRoutes := router.Group("/ws")
	wsRoutes.Use(middleware.Auth(cfg.JWTSecret))
	{
		wsRoutes.GET("/board/:boardId", h.WS.HandleConnection)
	}

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	return router
}

// Start runs the hub, the worker, the scheduler and the HTTP server in the
// background.
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{
		Logger:   a.Log.WithField("component", "asynq-scheduler"),
		LogLevel: asynq.WarnLevel,
	})

	entryID, err := scheduler.Register(snapshotCheckSchedule, tasks.NewSnapshotPeriodicCheckTask(), asynq.Queue("default"))
	if err != nil {
		a.Log.Errorf("Could not register periodic snapshot check task: %v", err)
		return
	}
	a.Log.Infof("Periodic snapshot check task registered with schedule '%s' (EntryID: %s)", snapshotCheckSchedule, entryID)
	a.scheduler = scheduler

	go func() {
		if err := scheduler.Run(); err != nil {
			a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
		}
	}()
}

// Shutdown stops every component, the HTTP server first so no new
// connections arrive while the hub drains.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.HttpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.HttpServer.Shutdown(ctx); err != nil {
			a.Log.Errorf("Error shutting down HTTP server: %v", err)
		} else {
			a.Log.Info("HTTP server shut down gracefully.")
		}
	}

	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// CORS allows the configured origin, or http://localhost:3000 when none is
// set.
func CORS(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Export-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs every request through log.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
