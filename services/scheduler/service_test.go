package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type fakeRegistry struct {
	recipients []dto.Recipient
	err        error
}

func (f *fakeRegistry) GetRecipients(ctx context.Context) ([]dto.Recipient, error) {
	return f.recipients, f.err
}

func (f *fakeRegistry) GetRecipientByID(ctx context.Context, id string) (*dto.Recipient, error) {
	for i := range f.recipients {
		if f.recipients[i].ID == id {
			return &f.recipients[i], nil
		}
	}
	return nil, nil
}

type enqueuedJob struct {
	payload dto.ReportJobPayload
	delay   time.Duration
}

type fakeQueue struct {
	jobs       map[string]enqueuedJob
	getErr     error
	enqueueErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{jobs: make(map[string]enqueuedJob)}
}

func (f *fakeQueue) Enqueue(ctx context.Context, key string, payload dto.ReportJobPayload, delay time.Duration) (bool, error) {
	if f.enqueueErr != nil {
		return false, f.enqueueErr
	}
	if _, ok := f.jobs[key]; ok {
		return false, nil
	}
	f.jobs[key] = enqueuedJob{payload: payload, delay: delay}
	return true, nil
}

func (f *fakeQueue) Get(ctx context.Context, key string) (*interfaces.JobState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if _, ok := f.jobs[key]; ok {
		return &interfaces.JobState{Key: key, Status: enum.JobStatusScheduled}, nil
	}
	return nil, nil
}

func testRecipient(id, timezone string) dto.Recipient {
	return dto.Recipient{
		ID:                id,
		Email:             id + "@acme.com",
		Timezone:          timezone,
		PreferredChannel:  enum.DeliveryChannelEmail,
		AssociatedDomains: []string{"domain-1"},
	}
}

func newTestScheduler(t *testing.T, registry *fakeRegistry, queue *fakeQueue, now time.Time) *Scheduler {
	s, err := NewScheduler(registry, queue, Config{}, getLogger())
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	s.randInt = func(n int) int { return 0 }
	return s
}

func TestJobKey(t *testing.T) {
	assert.Equal(t, "report-generation:rec-1:2025-05-31", JobKey("rec-1", "2025-05-31"))
}

func TestScheduleDailyReports_EnqueuesOnePerRecipient(t *testing.T) {
	registry := &fakeRegistry{recipients: []dto.Recipient{
		testRecipient("rec-1", "UTC"),
		testRecipient("rec-2", "Europe/Berlin"),
	}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Len(t, queue.jobs, 2)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Enqueued)
		assert.NoError(t, outcome.Err)
		assert.Equal(t, "2025-05-31", outcome.ReportDate)
	}

	job := queue.jobs["report-generation:rec-1:2025-05-31"]
	assert.Equal(t, "rec-1", job.payload.RecipientID)
	assert.Equal(t, "2025-05-31", job.payload.ReportDate)
}

func TestScheduleDailyReports_Idempotent(t *testing.T) {
	registry := &fakeRegistry{recipients: []dto.Recipient{testRecipient("rec-1", "UTC")}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		_, err := s.ScheduleDailyReports(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, queue.jobs, 1)
}

func TestScheduleDailyReports_FireTimeInsideLocalWindow(t *testing.T) {
	// Invocation at 23:00 UTC on June 1st is already June 2nd in Tokyo.
	now := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{recipients: []dto.Recipient{testRecipient("rec-tokyo", "Asia/Tokyo")}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, now)
	s.randInt = func(n int) int {
		assert.Equal(t, 120, n)
		return 45
	}

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Enqueued)
	assert.Equal(t, "2025-05-31", outcomes[0].ReportDate)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	fireAt := now.Add(outcomes[0].FireDelay).In(tokyo)

	assert.Positive(t, outcomes[0].FireDelay)
	hour := fireAt.Hour()*60 + fireAt.Minute()
	assert.GreaterOrEqual(t, hour, 7*60)
	assert.Less(t, hour, 9*60)
	// 07:45 Tokyo has already passed on June 2nd local, so the job rolls to June 3rd.
	assert.Equal(t, 3, fireAt.Day())
}

func TestScheduleDailyReports_PushesPastCandidateToNextDay(t *testing.T) {
	// 12:00 UTC: the whole window has passed for a UTC recipient.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{recipients: []dto.Recipient{testRecipient("rec-1", "UTC")}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, now)

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	fireAt := now.Add(outcomes[0].FireDelay)
	assert.Equal(t, time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC), fireAt)
}

func TestScheduleDailyReports_WindowSurvivesFallBackTransition(t *testing.T) {
	// 00:00 UTC on Nov 2nd is 20:00 EDT on Nov 1st; New York falls back to
	// EST overnight. The next-day candidate must stay at 07:45 wall clock
	// rather than shifting an absolute 24h to 06:45.
	now := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{recipients: []dto.Recipient{testRecipient("rec-ny", "America/New_York")}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, now)
	s.randInt = func(n int) int { return 45 }

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Enqueued)

	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fireAt := now.Add(outcomes[0].FireDelay).In(newYork)

	assert.Equal(t, 7, fireAt.Hour())
	assert.Equal(t, 45, fireAt.Minute())
	assert.Equal(t, 2, fireAt.Day())
	minutes := fireAt.Hour()*60 + fireAt.Minute()
	assert.GreaterOrEqual(t, minutes, 7*60)
	assert.Less(t, minutes, 9*60)
	// 07:45 EST is 12:45 UTC, 12h45m after the sweep.
	assert.Equal(t, 12*time.Hour+45*time.Minute, outcomes[0].FireDelay)
}

func TestNewScheduler_RejectsInvalidWindow(t *testing.T) {
	registry := &fakeRegistry{}
	queue := newFakeQueue()

	_, err := NewScheduler(registry, queue, Config{WindowStartHour: 8, WindowEndHour: 8}, getLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dispatch window")

	_, err = NewScheduler(registry, queue, Config{WindowStartHour: 9, WindowEndHour: 7}, getLogger())
	require.Error(t, err)
}

func TestScheduleDailyReports_UnknownChannelFailsFast(t *testing.T) {
	bad := testRecipient("rec-bad", "UTC")
	bad.PreferredChannel = "pigeon"
	registry := &fakeRegistry{recipients: []dto.Recipient{bad, testRecipient("rec-good", "UTC")}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.ErrorIs(t, outcomes[0].Err, ierrors.ErrUnknownChannel)
	assert.False(t, outcomes[0].Enqueued)
	assert.True(t, outcomes[1].Enqueued)
	assert.Len(t, queue.jobs, 1)
}

func TestScheduleDailyReports_InvalidTimezoneDoesNotAbortSweep(t *testing.T) {
	registry := &fakeRegistry{recipients: []dto.Recipient{
		testRecipient("rec-bad", "Mars/Olympus"),
		testRecipient("rec-good", "UTC"),
	}}
	queue := newFakeQueue()
	s := newTestScheduler(t, registry, queue, time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	assert.False(t, outcomes[0].Enqueued)
	assert.True(t, outcomes[1].Enqueued)
	assert.Len(t, queue.jobs, 1)
}

func TestScheduleDailyReports_QueueInsertFailureIsIsolated(t *testing.T) {
	registry := &fakeRegistry{recipients: []dto.Recipient{testRecipient("rec-1", "UTC")}}
	queue := newFakeQueue()
	queue.enqueueErr = errors.New("connection reset")
	s := newTestScheduler(t, registry, queue, time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.ErrorContains(t, outcomes[0].Err, "queue insert failed")
}

func TestScheduleDailyReports_RegistryFailureAbortsSweep(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("registry down")}
	s := newTestScheduler(t, registry, newFakeQueue(), time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))

	outcomes, err := s.ScheduleDailyReports(context.Background())

	require.Error(t, err)
	assert.Nil(t, outcomes)
	assert.Contains(t, err.Error(), "failed to list recipients")
}
