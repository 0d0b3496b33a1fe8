package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"gorm.io/gorm"

	"github.com/anidavtyan/email-reporting-system/api"
	"github.com/anidavtyan/email-reporting-system/config"
	"github.com/anidavtyan/email-reporting-system/internal/cron"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/queue"
	"github.com/anidavtyan/email-reporting-system/internal/repository"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/services"
)

type Server struct {
	config       *config.Config
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	worker       *queue.Worker
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize repositories
	repos := repository.InitRepositories(db)

	// Initialize services
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return nil, err
	}

	// Queue worker drives report jobs through the processor
	worker := queue.NewWorker(repos.ReportJobRepository, svcs.Processor, appLogger, queue.WorkerConfig{
		PollInterval:     time.Duration(cfg.QueueWorkerConfig.PollIntervalSeconds) * time.Second,
		BatchSize:        cfg.QueueWorkerConfig.BatchSize,
		LeaseDuration:    time.Duration(cfg.QueueWorkerConfig.LeaseDurationSeconds) * time.Second,
		MaxAttempts:      cfg.QueueWorkerConfig.MaxAttempts,
		RetryBackoffBase: time.Duration(cfg.QueueWorkerConfig.RetryBackoffBaseSeconds) * time.Second,
	})

	cronManager := cron.NewCronManager(appLogger, svcs.Scheduler)

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	return &Server{
		config:       cfg,
		router:       router,
		services:     svcs,
		repositories: repos,
		worker:       worker,
		cronManager:  cronManager,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) Initialize(ctx context.Context) error {
	// Setup API routes
	api.RegisterRoutes(ctx, s.router, s.services, s.repositories, s.config.AppConfig.APIKey)

	return nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		log.Printf("❌ Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	// Create root context for the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize server components
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	// Run the startup sweep to catch jobs missed during downtime
	log.Println("Running startup report sweep...")
	s.wrapGoroutine("startup_sweep", func() {
		if _, err := s.services.Scheduler.ScheduleDailyReports(ctx); err != nil {
			log.Printf("❌ Startup report sweep error: %v", err)
		}
	})
	log.Println("✅ Startup report sweep finished")

	// Start the queue worker with panic recovery
	go s.wrapGoroutine("queue_worker", func() {
		log.Println("Starting queue worker")
		s.worker.Run(ctx)
	})
	log.Println("✅ Queue worker started successfully")

	// Start the cron safety net
	s.cronManager.StartCron()
	log.Println("✅ Cron manager started successfully")

	// Start HTTP server in a goroutine with panic recovery
	go s.wrapGoroutine("http_server", func() {
		log.Println("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ HTTP server error: %v", err)
		}
	})
	log.Println("✅ HTTP server started successfully")
	log.Println("Report orchestrator is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown(cancel)
}

func (s *Server) waitForShutdown(cancel context.CancelFunc) error {
	defer s.recoverWithJaeger("shutdown")

	// Set up signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop
	log.Println("Shutting down...")

	// Stop the worker and any in-flight sweeps
	cancel()

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Stop the cron manager, waiting for running jobs
	s.cronManager.Stop()

	if err := s.services.Events.Close(); err != nil {
		log.Printf("❌ Event publisher shutdown error: %v", err)
	}

	// Shut down HTTP server
	log.Println("Shutting down HTTP server...")
	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ HTTP server shutdown error: %v", err)
	} else {
		log.Println("✅ HTTP server shut down successfully")
	}

	return nil
}
