package services

import (
	"time"

	"github.com/anidavtyan/email-reporting-system/config"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/queue"
	"github.com/anidavtyan/email-reporting-system/internal/repository"
	"github.com/anidavtyan/email-reporting-system/services/delivery"
	"github.com/anidavtyan/email-reporting-system/services/events"
	"github.com/anidavtyan/email-reporting-system/services/processor"
	"github.com/anidavtyan/email-reporting-system/services/registry"
	"github.com/anidavtyan/email-reporting-system/services/render"
	"github.com/anidavtyan/email-reporting-system/services/scheduler"
	"github.com/anidavtyan/email-reporting-system/services/smtp"
	"github.com/anidavtyan/email-reporting-system/services/storage"
	"github.com/anidavtyan/email-reporting-system/services/usage"
	"github.com/anidavtyan/email-reporting-system/services/webhook"
)

type Services struct {
	RecipientRegistry interfaces.RecipientRegistry
	DomainRegistry    interfaces.DomainRegistry
	UsageAggregator   interfaces.UsageAggregator
	Renderer          interfaces.ReportRenderer
	Storage           interfaces.StorageService
	Events            interfaces.EventPublisher
	Dispatcher        interfaces.StrategyResolver
	Processor         interfaces.JobHandler
	Queue             interfaces.JobQueue
	Scheduler         *scheduler.Scheduler
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	recipients := registry.NewRecipientRegistry(cfg.RegistryConfig.BaseURL, log)
	domains := registry.NewDomainRegistry(cfg.RegistryConfig.BaseURL, log)
	metrics := registry.NewUsageMetricsClient(cfg.RegistryConfig.BaseURL, log)

	aggregator := usage.NewAggregator(metrics, domains, log, usage.Config{
		ChunkSize:   cfg.UsageConfig.ChunkSize,
		ChunkPacing: time.Duration(cfg.UsageConfig.ChunkPacingMs) * time.Millisecond,
	})

	renderer := render.NewPDFRenderer()

	storageService := storage.NewR2StorageService(
		cfg.R2StorageConfig.AccountID,
		cfg.R2StorageConfig.AccessKeyID,
		cfg.R2StorageConfig.AccessKeySecret,
		cfg.R2StorageConfig.ReportBucket,
		cfg.R2StorageConfig.CDNDomain,
	)

	var eventPublisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		publisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		eventPublisher = publisher
	} else {
		log.Warn("RabbitMQ URL not configured, report events will not be published")
		eventPublisher = events.NewNoopPublisher()
	}

	retryConfig := delivery.RetryConfig{
		MaxAttempts:    cfg.DeliveryConfig.MaxAttempts,
		InitialBackoff: time.Duration(cfg.DeliveryConfig.InitialBackoffMs) * time.Millisecond,
	}
	emailStrategy := delivery.NewEmailStrategy(
		smtp.NewEmailSender(smtp.Config{
			Host:        cfg.SMTPConfig.Host,
			Port:        cfg.SMTPConfig.Port,
			Username:    cfg.SMTPConfig.Username,
			Password:    cfg.SMTPConfig.Password,
			FromAddress: cfg.SMTPConfig.FromAddress,
			FromName:    cfg.SMTPConfig.FromName,
		}),
		cfg.DeliveryConfig.TemplatesDir,
		log,
		retryConfig,
	)
	webhookStrategy := delivery.NewWebhookStrategy(webhook.NewWebhookSender(), log, retryConfig)
	dispatcher := delivery.NewDispatcher(emailStrategy, webhookStrategy)

	reportProcessor := processor.NewReportProcessor(
		recipients,
		aggregator,
		renderer,
		storageService,
		dispatcher,
		eventPublisher,
		log,
	)

	jobQueue := queue.NewGormJobQueue(repos.ReportJobRepository)

	reportScheduler, err := scheduler.NewScheduler(recipients, jobQueue, scheduler.Config{
		WindowStartHour: cfg.SchedulerConfig.WindowStartHour,
		WindowEndHour:   cfg.SchedulerConfig.WindowEndHour,
	}, log)
	if err != nil {
		return nil, err
	}

	return &Services{
		RecipientRegistry: recipients,
		DomainRegistry:    domains,
		UsageAggregator:   aggregator,
		Renderer:          renderer,
		Storage:           storageService,
		Events:            eventPublisher,
		Dispatcher:        dispatcher,
		Processor:         reportProcessor,
		Queue:             jobQueue,
		Scheduler:         reportScheduler,
	}, nil
}
