package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/cache"
	"github.com/mentorhub/mentorhub-api/internal/handlers"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/realtime"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/internal/services"
	"github.com/mentorhub/mentorhub-api/pkg/db"
	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/mentorhub/mentorhub-api/pkg/jwt"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/meeting"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/profiling"
	"github.com/mentorhub/mentorhub-api/pkg/storage"
	"github.com/mentorhub/mentorhub-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// registerAPIRoutes registers the authenticated v1 API routes
func registerAPIRoutes(
	v1 *gin.RouterGroup,
	generalRateLimiter, writeRateLimiter *middleware.RateLimiter,
	requestHandler *handlers.RequestHandler,
	sessionHandler *handlers.SessionHandler,
	relationshipHandler *handlers.RelationshipHandler,
	notificationHandler *handlers.NotificationHandler,
	dashboardHandler *handlers.DashboardHandler,
) {
	// Mentoring request lifecycle
	v1.POST("/requests", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), requestHandler.Submit)
	v1.GET("/requests", generalRateLimiter.Middleware(), requestHandler.List)
	v1.GET("/requests/:id", generalRateLimiter.Middleware(), requestHandler.Get)
	v1.POST("/requests/:id/accept", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), requestHandler.Accept)
	v1.POST("/requests/:id/decline", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), requestHandler.Decline)
	v1.POST("/requests/:id/cancel", writeRateLimiter.Middleware(), requestHandler.Cancel)

	// Session lifecycle
	v1.POST("/sessions/book", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), sessionHandler.Book)
	v1.POST("/sessions", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), sessionHandler.Create)
	v1.GET("/sessions", generalRateLimiter.Middleware(), sessionHandler.List)
	v1.GET("/sessions/availability", generalRateLimiter.Middleware(), sessionHandler.CheckAvailability)
	v1.GET("/sessions/:id", generalRateLimiter.Middleware(), sessionHandler.Get)
	v1.POST("/sessions/:id/start", writeRateLimiter.Middleware(), sessionHandler.Start)
	v1.POST("/sessions/:id/end", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), sessionHandler.End)
	v1.POST("/sessions/:id/cancel", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), sessionHandler.Cancel)
	v1.POST("/sessions/:id/reschedule", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), sessionHandler.Reschedule)
	v1.PATCH("/sessions/:id", writeRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), sessionHandler.Update)

	// Relationships
	v1.GET("/relationships", generalRateLimiter.Middleware(), relationshipHandler.List)
	v1.POST("/relationships/:id/end", writeRateLimiter.Middleware(), relationshipHandler.End)

	// Notifications
	v1.GET("/notifications", generalRateLimiter.Middleware(), notificationHandler.List)
	v1.POST("/notifications/:id/read", generalRateLimiter.Middleware(), notificationHandler.MarkRead)
	v1.POST("/notifications/read-all", generalRateLimiter.Middleware(), notificationHandler.MarkAllRead)

	// Dashboard
	v1.GET("/dashboard", generalRateLimiter.Middleware(), dashboardHandler.Get)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting MentorHub API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling
	profilerStop, err := profiling.InitProfiler(
		profiling.Config{
			Enabled:               cfg.Profiling.Enabled,
			Endpoint:              cfg.Profiling.Endpoint,
			AppName:               cfg.Profiling.AppName,
			SampleTypes:           cfg.Profiling.SampleTypes,
			UploadIntervalSeconds: cfg.Profiling.UploadIntervalSeconds,
		},
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(context.Background(), db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer pool.Close()

	// NOTE: Database migrations run separately via the migrate command

	// Initialize object storage for session recap archives (optional)
	var recapStore storage.ObjectStore
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		client, storageErr := storage.NewClient(
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
			cfg.Storage.BucketName,
			cfg.Storage.Endpoint,
			cfg.Storage.Region,
		)
		if storageErr != nil {
			logger.Fatal("Failed to initialize object storage client", zap.Error(storageErr))
		}
		recapStore = client
	} else {
		logger.Warn("Object storage not configured: session recaps will not be archived")
	}

	// Initialize caches and repositories
	userCache := cache.NewUserCache(cfg.Cache.UserTTLSeconds)
	userRepo := repository.NewUserRepository(pool, userCache)
	requestRepo := repository.NewRequestRepository(pool)
	relationshipRepo := repository.NewRelationshipRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	scheduledEventRepo := repository.NewScheduledEventRepository(pool)

	// Initialize HTTP client for webhook triggers
	httpClient := httpclient.NewStandardClient()

	// Initialize realtime hub and deferred-event sweeper
	hub := realtime.NewHub()
	sweeper := realtime.NewSweeper(
		scheduledEventRepo,
		hub,
		time.Duration(cfg.Realtime.SweepIntervalSeconds)*time.Second,
		cfg.Realtime.SweepBatchSize,
	)
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweeperCtx)

	// Initialize token manager
	tokenManager := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTLHours)

	// Initialize services
	meetingGenerator := meeting.NewGenerator(cfg.Platform.MeetingBaseURL)
	requestService := services.NewRequestService(requestRepo, userRepo, notificationRepo, scheduledEventRepo, hub, meetingGenerator, httpClient, cfg)
	sessionService := services.NewSessionService(sessionRepo, userRepo, relationshipRepo, notificationRepo, scheduledEventRepo, hub, meetingGenerator, recapStore, httpClient, cfg)
	availabilityService := services.NewAvailabilityService(sessionRepo)
	relationshipService := services.NewRelationshipService(relationshipRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	dashboardService := services.NewDashboardService(requestRepo, relationshipRepo, sessionRepo, notificationRepo)

	// Initialize handlers
	requestHandler := handlers.NewRequestHandler(requestService)
	sessionHandler := handlers.NewSessionHandler(sessionService, availabilityService)
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	healthHandler := handlers.NewHealthHandler(func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	})
	wsHandler := realtime.NewHandler(hub, tokenManager, cfg.Realtime.SendBufferSize, cfg.Server.AllowedOrigins)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration - only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // Required for session cookies
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiters: reads are cheap, lifecycle writes are not
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	writeRateLimiter := middleware.NewRateLimiter(10, 20)     // 10 req/sec, burst of 20

	// Utility endpoints (not versioned - operational endpoints)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	// Realtime event channel (token validated during the upgrade handshake)
	router.GET("/ws", wsHandler.Serve)

	// API v1 routes (all authenticated)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.ActorMiddleware(tokenManager))
	registerAPIRoutes(v1, generalRateLimiter, writeRateLimiter,
		requestHandler, sessionHandler, relationshipHandler, notificationHandler, dashboardHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB max header size
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
