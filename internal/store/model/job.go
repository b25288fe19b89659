package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// jobTransitions is the single source of truth for the job lifecycle.
// Every mutation path must consult it; there are no ad hoc status checks
// elsewhere. The running self-transition carries progress reports.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusQueued:    {JobStatusRunning, JobStatusCancelled},
	JobStatusRunning:   {JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusPaused, JobStatusCancelled},
	JobStatusPaused:    {JobStatusRunning},
	JobStatusFailed:    {JobStatusRunning},
	JobStatusCompleted: {},
	JobStatusCancelled: {},
}

func (s JobStatus) Valid() bool {
	_, ok := jobTransitions[s]
	return ok
}

func (s JobStatus) Terminal() bool {
	next, ok := jobTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether a cancel request is legal from s.
func (s JobStatus) Cancellable() bool {
	return s.CanTransitionTo(JobStatusCancelled)
}

// Resumable reports whether a resume request is legal from s.
func (s JobStatus) Resumable() bool {
	return s == JobStatusPaused || s == JobStatusFailed
}

type Job struct {
	gorm.Model
	ID           uuid.UUID `gorm:"primaryKey"`
	CustomerID   uuid.UUID `gorm:"index;not null"`
	ProjectID    uuid.UUID `gorm:"index;not null"`
	Status       JobStatus `gorm:"type:VARCHAR(16);not null;index"`
	Progress     int       `gorm:"not null;default:0"`
	Version      int64     `gorm:"not null;default:1"`
	Config       []byte    `gorm:"type:jsonb"`
	ErrorCode    *string
	ErrorMessage *string
	ResultRef    *string
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

func NewJobFromID(id uuid.UUID) *Job {
	return &Job{ID: id}
}
