package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Daily report sweep safety net, 07:00 UTC
	CronScheduleReportSweep string `env:"CRON_SCHEDULE_REPORT_SWEEP" envDefault:"0 0 7 * * *"`
}
