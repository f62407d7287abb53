package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition encodes the fixed path pending -> running -> {completed|failed}.
// No backward moves, no skipping of running.
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case JobStatusPending:
		return to == JobStatusRunning
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed
	}
	return false
}

// RunJob is one requested execution of a skill against an input. The store owns
// the authoritative copy; workers only hold the snapshot returned by ClaimNext.
type RunJob struct {
	ID          string
	SkillID     int64
	RequestedBy int64
	InputText   string
	Status      JobStatus
	OutputText  string
	ErrorText   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewRunJob(skillID, requestedBy int64, inputText string) *RunJob {
	now := time.Now()
	return &RunJob{
		ID:          uuid.NewString(),
		SkillID:     skillID,
		RequestedBy: requestedBy,
		InputText:   inputText,
		Status:      JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
