package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/anidavtyan/email-reporting-system/api/handlers"
	"github.com/anidavtyan/email-reporting-system/api/middleware"
	"github.com/anidavtyan/email-reporting-system/internal/repository"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// Health check endpoint (no auth needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware())
	{
		reports := api.Group("/reports")
		{
			reports.POST("/sweep", handlers.TriggerSweep(s.Scheduler))
		}

		jobs := api.Group("/jobs")
		{
			jobs.GET("", handlers.ListJobs(repos.ReportJobRepository))
		}
	}
}
