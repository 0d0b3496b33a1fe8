package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type Config struct {
	AppConfig         *AppConfig
	Logger            *logger.Config
	Tracing           *tracing.JaegerConfig
	DatabaseConfig    *DatabaseConfig
	RegistryConfig    *RegistryConfig
	SchedulerConfig   *SchedulerConfig
	UsageConfig       *UsageConfig
	DeliveryConfig    *DeliveryConfig
	QueueWorkerConfig *QueueWorkerConfig
	SMTPConfig        *SMTPConfig
	R2StorageConfig   *R2StorageConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:         &AppConfig{},
		Logger:            &logger.Config{},
		Tracing:           &tracing.JaegerConfig{},
		DatabaseConfig:    &DatabaseConfig{},
		RegistryConfig:    &RegistryConfig{},
		SchedulerConfig:   &SchedulerConfig{},
		UsageConfig:       &UsageConfig{},
		DeliveryConfig:    &DeliveryConfig{},
		QueueWorkerConfig: &QueueWorkerConfig{},
		SMTPConfig:        &SMTPConfig{},
		R2StorageConfig:   &R2StorageConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	return config, nil
}
