package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/kwhite/taskpulse/internal/auth"
	"github.com/kwhite/taskpulse/internal/config"
	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/handlers"
	"github.com/kwhite/taskpulse/internal/logger"
	"github.com/kwhite/taskpulse/internal/middleware"
	"github.com/kwhite/taskpulse/internal/queue"
	"github.com/kwhite/taskpulse/internal/realtime"
	"github.com/kwhite/taskpulse/internal/session"
	"github.com/kwhite/taskpulse/internal/storage"
	"github.com/kwhite/taskpulse/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := logger.Sync(zapLogger); syncErr != nil {
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, initErr := telemetry.InitTracer(context.Background(), "taskpulse-api", cfg.OTELEndpoint)
			if initErr != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(initErr))
			} else {
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if shutdownErr := telemetry.Shutdown(shutdownCtx, tp); shutdownErr != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(shutdownErr))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	registry := session.NewRegistry(session.Deps{
		TaskRepo:     database.NewTaskRepository(db),
		SubtaskRepo:  database.NewSubtaskRepository(db),
		ActivityRepo: database.NewActivityRepository(db),
		EventRepo:    database.NewEventRepository(db),
		ProfileRepo:  database.NewProfileRepository(db),
		Publisher:    realtime.NewPublisher(redisClient),
		Notifier:     queue.NewNotifier(jobQueue, zapLogger),
		Objects:      storage.NewDiskStorage(cfg.StorageRoot, cfg.StorageBaseURL),
		Redis:        redisClient,
		Logger:       zapLogger,
	})
	defer registry.Close()

	verifier := auth.NewVerifier(auth.NewJWKSManager(), cfg.JWKSURL, cfg.JWTIssuer, cfg.JWTAudience)

	taskHandler := handlers.NewTaskHandler(registry)
	eventHandler := handlers.NewEventHandler(registry)
	profileHandler := handlers.NewProfileHandler(registry)
	analyticsHandler := handlers.NewAnalyticsHandler(registry)
	sessionHandler := handlers.NewSessionHandler(registry)
	healthChecker := handlers.NewHealthChecker(db, redisClient, jobQueue)

	r := mux.NewRouter()

	zapLogger.Info("setting_up_middleware")

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("taskpulse-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromConfig(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// Avatar objects served straight off disk
	r.PathPrefix("/objects/").Handler(
		http.StripPrefix("/objects/", http.FileServer(http.Dir(cfg.StorageRoot))),
	).Methods("GET")

	// API v1 routes (all protected)
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Auth(verifier, zapLogger))
	apiRouter.Use(rateLimitMW)

	taskHandler.RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	eventHandler.RegisterRoutes(apiRouter.PathPrefix("/events").Subrouter())
	profileHandler.RegisterRoutes(apiRouter.PathPrefix("/profile").Subrouter())
	analyticsHandler.RegisterRoutes(apiRouter.PathPrefix("/analytics").Subrouter())
	sessionHandler.RegisterRoutes(apiRouter.PathPrefix("/session").Subrouter())

	// Preflight requests short-circuit after the CORS middleware runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries with exponential backoff to ride out broker
// startup delays
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
