package history

import "time"

// Status records how a job ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Job is one recorded clipping run.
type Job struct {
	ID               string
	Source           string
	Mode             string
	Status           Status
	ClipCount        int
	DiscardedSeconds float64
	ErrorMessage     string
	CreatedAt        time.Time
	Artifacts        []Artifact
}

// Artifact is one clip produced by a job, with its optional thumbnail name.
type Artifact struct {
	Name         string
	StartSeconds float64
	EndSeconds   float64
	SizeBytes    int64
	Thumbnail    string
}
