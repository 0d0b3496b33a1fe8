package config

import (
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12111"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type DatabaseConfig struct {
	Host            string `env:"POSTGRES_HOST,required"`
	Port            string `env:"POSTGRES_PORT,required"`
	User            string `env:"POSTGRES_USER,required"`
	DBName          string `env:"POSTGRES_DB_NAME,required"`
	Password        string `env:"POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"POSTGRES_SSL_MODE" envDefault:"require"`
}

// RegistryConfig points at the external recipient/domain registry service.
type RegistryConfig struct {
	BaseURL string `env:"REGISTRY_BASE_URL,required"`
}

type SchedulerConfig struct {
	WindowStartHour int `env:"SCHEDULER_WINDOW_START_HOUR" envDefault:"7"`
	WindowEndHour   int `env:"SCHEDULER_WINDOW_END_HOUR" envDefault:"9"`
}

type UsageConfig struct {
	ChunkSize     int `env:"USAGE_CHUNK_SIZE" envDefault:"50"`
	ChunkPacingMs int `env:"USAGE_CHUNK_PACING_MS" envDefault:"250"`
}

type DeliveryConfig struct {
	TemplatesDir     string `env:"DELIVERY_TEMPLATES_DIR" envDefault:"templates/email"`
	MaxAttempts      int    `env:"DELIVERY_MAX_ATTEMPTS" envDefault:"3"`
	InitialBackoffMs int    `env:"DELIVERY_INITIAL_BACKOFF_MS" envDefault:"1000"`
}

type QueueWorkerConfig struct {
	PollIntervalSeconds     int `env:"QUEUE_POLL_INTERVAL_SECONDS" envDefault:"5"`
	BatchSize               int `env:"QUEUE_BATCH_SIZE" envDefault:"10"`
	LeaseDurationSeconds    int `env:"QUEUE_LEASE_DURATION_SECONDS" envDefault:"120"`
	MaxAttempts             int `env:"QUEUE_MAX_ATTEMPTS" envDefault:"5"`
	RetryBackoffBaseSeconds int `env:"QUEUE_RETRY_BACKOFF_BASE_SECONDS" envDefault:"30"`
}

type SMTPConfig struct {
	Host        string `env:"SMTP_HOST"`
	Port        string `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	FromAddress string `env:"SMTP_FROM_ADDRESS"`
	FromName    string `env:"SMTP_FROM_NAME" envDefault:"Usage Reports"`
}

type R2StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	ReportBucket    string `env:"BUCKET_NAME_REPORTS" envDefault:"reports"`
	CDNDomain       string `env:"REPORT_CDN_DOMAIN"`
}
