package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusExtracted JobStatus = "EXTRACTED" // layout heuristics wrote 題庫
	JobStatusResolved  JobStatus = "RESOLVED"  // model resolver wrote 題庫
	JobStatusSkipped   JobStatus = "SKIPPED"   // no layout, no files, or already filled
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// JobStatuses lists every status in lifecycle order.
func JobStatuses() []JobStatus {
	return []JobStatus{
		JobStatusQueued, JobStatusRunning,
		JobStatusExtracted, JobStatusResolved, JobStatusSkipped, JobStatusFailed,
	}
}

// Terminal reports whether no further transition is expected.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusExtracted, JobStatusResolved, JobStatusSkipped, JobStatusFailed:
		return true
	}
	return false
}
