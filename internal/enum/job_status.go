package enum

type JobStatus string

const (
	JobStatusScheduled    JobStatus = "scheduled"
	JobStatusProcessing   JobStatus = "processing"
	JobStatusFailed       JobStatus = "failed"
	JobStatusDeadLettered JobStatus = "dead_lettered"
)

func (t JobStatus) String() string {
	return string(t)
}
