package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anidavtyan/email-reporting-system/internal/enum"
)

func TestClaimableStatuses_ReclaimExpiredLeases(t *testing.T) {
	// A claimed row is set to processing with next_attempt_at pushed to the
	// lease horizon. If the worker dies before marking the job, that row must
	// still be claimable once the lease expires, alongside fresh and retrying
	// jobs.
	assert.Contains(t, claimableStatuses, enum.JobStatusScheduled)
	assert.Contains(t, claimableStatuses, enum.JobStatusFailed)
	assert.Contains(t, claimableStatuses, enum.JobStatusProcessing)

	// Dead-lettered rows are kept for inspection only.
	assert.NotContains(t, claimableStatuses, enum.JobStatusDeadLettered)
}
