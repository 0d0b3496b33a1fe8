package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

const (
	jobKeyPrefix = "report-generation"

	// delay applied when the computed fire instant is somehow already past
	minimalDelay = 100 * time.Millisecond

	DefaultWindowStartHour = 7
	DefaultWindowEndHour   = 9
)

type Config struct {
	// Recipient-local dispatch window, as hours of the day. A report fires
	// at a random minute inside [WindowStartHour, WindowEndHour).
	WindowStartHour int
	WindowEndHour   int
}

func (c Config) withDefaults() Config {
	if c.WindowStartHour == 0 && c.WindowEndHour == 0 {
		c.WindowStartHour = DefaultWindowStartHour
		c.WindowEndHour = DefaultWindowEndHour
	}
	return c
}

// SweepOutcome records what the sweep decided for one recipient. A sweep
// never aborts on a single recipient; callers inspect outcomes instead.
type SweepOutcome struct {
	RecipientID string
	ReportDate  string
	JobKey      string
	Enqueued    bool
	FireDelay   time.Duration
	Err         error
}

// Scheduler ensures exactly one report job per recipient per reporting day.
// Deduplication rests entirely on the queue's add-if-absent semantics keyed
// by JobKey, so concurrent sweeps are safe.
type Scheduler struct {
	recipients interfaces.RecipientRegistry
	queue      interfaces.JobQueue
	config     Config
	log        logger.Logger

	// injectable for tests
	now     func() time.Time
	randInt func(n int) int
}

func NewScheduler(recipients interfaces.RecipientRegistry, queue interfaces.JobQueue, config Config, log logger.Logger) (*Scheduler, error) {
	config = config.withDefaults()
	if config.WindowEndHour <= config.WindowStartHour {
		return nil, errors.Errorf("invalid dispatch window [%d, %d): end hour must be after start hour", config.WindowStartHour, config.WindowEndHour)
	}
	return &Scheduler{
		recipients: recipients,
		queue:      queue,
		config:     config,
		log:        log,
		now:        utils.Now,
		randInt:    rand.Intn,
	}, nil
}

// JobKey derives the idempotency key for one (recipient, report date) pair.
func JobKey(recipientID, reportDate string) string {
	return fmt.Sprintf("%s:%s:%s", jobKeyPrefix, recipientID, reportDate)
}

// ScheduleDailyReports runs one idempotent sweep over all registered
// recipients. It is invoked at process start and from the daily cron; both
// invocations are equivalent.
func (s *Scheduler) ScheduleDailyReports(ctx context.Context) ([]SweepOutcome, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Scheduler.ScheduleDailyReports")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	recipients, err := s.recipients.GetRecipients(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list recipients")
	}
	span.LogKV("recipients.count", len(recipients))

	now := s.now()
	reportDate := utils.FormatDate(now.Add(-24 * time.Hour))

	outcomes := make([]SweepOutcome, 0, len(recipients))
	for _, recipient := range recipients {
		outcome := s.scheduleRecipient(ctx, recipient, now, reportDate)
		if outcome.Err != nil {
			s.log.Errorf("Failed to schedule report for recipient %s (%s): %v", outcome.RecipientID, outcome.ReportDate, outcome.Err)
		}
		outcomes = append(outcomes, outcome)
	}

	enqueued, skipped, failed := summarize(outcomes)
	s.log.Infof("Report sweep for %s finished: %d enqueued, %d already scheduled, %d failed", reportDate, enqueued, skipped, failed)
	span.LogKV("result.enqueued", enqueued, "result.skipped", skipped, "result.failed", failed)

	return outcomes, nil
}

func (s *Scheduler) scheduleRecipient(ctx context.Context, recipient dto.Recipient, now time.Time, reportDate string) SweepOutcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Scheduler.scheduleRecipient")
	defer span.Finish()
	tracing.TagRecipient(span, recipient.ID)
	tracing.TagReportDate(span, reportDate)

	outcome := SweepOutcome{
		RecipientID: recipient.ID,
		ReportDate:  reportDate,
		JobKey:      JobKey(recipient.ID, reportDate),
	}
	tracing.TagJobKey(span, outcome.JobKey)

	if !recipient.PreferredChannel.IsValid() {
		err := errors.Wrapf(ierrors.ErrUnknownChannel, "channel %q", recipient.PreferredChannel)
		tracing.TraceErr(span, err)
		outcome.Err = err
		return outcome
	}

	existing, err := s.queue.Get(ctx, outcome.JobKey)
	if err != nil {
		tracing.TraceErr(span, err)
		outcome.Err = errors.Wrap(err, "queue lookup failed")
		return outcome
	}
	if existing != nil {
		s.log.Debugf("Report job %s already exists in state %s, skipping", outcome.JobKey, existing.Status)
		span.LogKV("result", "already scheduled")
		return outcome
	}

	delay, err := s.fireDelay(recipient, now)
	if err != nil {
		tracing.TraceErr(span, err)
		outcome.Err = err
		return outcome
	}
	outcome.FireDelay = delay

	payload := dto.ReportJobPayload{
		RecipientID: recipient.ID,
		ReportDate:  reportDate,
	}
	inserted, err := s.queue.Enqueue(ctx, outcome.JobKey, payload, delay)
	if err != nil {
		tracing.TraceErr(span, err)
		outcome.Err = errors.Wrap(err, "queue insert failed")
		return outcome
	}
	if !inserted {
		// A concurrent sweep won the insert between our lookup and now.
		s.log.Debugf("Report job %s inserted concurrently, skipping", outcome.JobKey)
		span.LogKV("result", "lost insert race")
		return outcome
	}

	outcome.Enqueued = true
	s.log.Infof("Scheduled report job %s firing in %s", outcome.JobKey, delay.Round(time.Second))
	return outcome
}

// fireDelay picks a uniformly random minute inside the dispatch window on
// the recipient's current local day, pushes it to the next day when that
// moment already passed, and returns the distance from now.
func (s *Scheduler) fireDelay(recipient dto.Recipient, now time.Time) (time.Duration, error) {
	location, err := time.LoadLocation(recipient.Timezone)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timezone %q", recipient.Timezone)
	}

	windowMinutes := (s.config.WindowEndHour - s.config.WindowStartHour) * 60
	offsetMinutes := s.randInt(windowMinutes)

	localNow := now.In(location)
	offset := time.Duration(offsetMinutes) * time.Minute
	candidate := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), s.config.WindowStartHour, 0, 0, 0, location).Add(offset)
	if !candidate.After(localNow) {
		// Rebuild from calendar components instead of adding 24h so the
		// wall-clock window survives a DST transition overnight.
		candidate = time.Date(localNow.Year(), localNow.Month(), localNow.Day()+1, s.config.WindowStartHour, 0, 0, 0, location).Add(offset)
	}

	delay := candidate.Sub(now)
	if delay < 0 {
		s.log.Warnf("Computed negative fire delay %s for recipient %s, clamping", delay, recipient.ID)
		delay = minimalDelay
	}
	return delay, nil
}

func summarize(outcomes []SweepOutcome) (enqueued, skipped, failed int) {
	for _, outcome := range outcomes {
		switch {
		case outcome.Err != nil:
			failed++
		case outcome.Enqueued:
			enqueued++
		default:
			skipped++
		}
	}
	return
}
