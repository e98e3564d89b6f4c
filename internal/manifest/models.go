package manifest

import "time"

// RunStatus represents the lifecycle of a recorded scan run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one scan invocation.
type Run struct {
	ID            string
	ScanRoot      string
	OutputRoot    string
	Keywords      []string
	Workers       int
	Status        RunStatus
	StartedAt     time.Time
	FinishedAt    time.Time
	FilesExamined int64
	ErrorsTotal   int64
}

// Result records one recovered (or attempted) file within a run.
type Result struct {
	ID              int64
	RunID           string
	SourcePath      string
	DestinationPath string
	Kind            string
	Basis           string
	Copied          bool
	ErrorDetail     string
}
