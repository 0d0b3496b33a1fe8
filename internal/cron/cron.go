package cron

import (
	"context"
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	cron_config "github.com/anidavtyan/email-reporting-system/internal/cron/config"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/services/scheduler"
)

// sweepLock serializes report sweeps triggered by cron. The startup sweep
// runs before the cron starts, so it never contends here; correctness under
// true concurrency rests on the queue's key semantics anyway.
var sweepLock sync.Mutex

type CronManager struct {
	log       logger.Logger
	cron      *cronv3.Cron
	stopCh    chan struct{}
	jobIDs    map[string]cronv3.EntryID
	scheduler *scheduler.Scheduler
}

func NewCronManager(log logger.Logger, scheduler *scheduler.Scheduler) *CronManager {
	return &CronManager{
		log:       log,
		stopCh:    make(chan struct{}),
		jobIDs:    make(map[string]cronv3.EntryID),
		scheduler: scheduler,
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		hostname, _ := os.Hostname()
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLog(cm.log)
			cm.log.Infof("Cron heartbeat from host: %s", hostname)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Register the daily report sweep safety net
	if cronConfig.CronScheduleReportSweep != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleReportSweep, func() {
			defer tracing.RecoverAndLog(cm.log)
			sweepLock.Lock()
			defer sweepLock.Unlock()
			cm.runReportSweep()
		})
		if err != nil {
			cm.log.Fatalf("Could not add report sweep cron job: %v", err)
		}
		cm.jobIDs["report_sweep"] = id
		cm.log.Infof("Registered report sweep job with schedule: %s", cronConfig.CronScheduleReportSweep)
	}
}

func (cm *CronManager) runReportSweep() {
	cm.log.Info("Running daily report sweep")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runReportSweep")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if _, err := cm.scheduler.ScheduleDailyReports(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to run report sweep: %v", err)
		return
	}

	cm.log.Info("Successfully completed report sweep")
}
