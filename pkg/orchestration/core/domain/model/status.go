package model

import "strings"

// JobStatus represents the execution state of a BatchJob or a WorkflowRun.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
	StatusCancelled JobStatus = "CANCELLED"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsFinished checks if the JobStatus represents a terminal state.
func (s JobStatus) IsFinished() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the job can still be cancelled.
func (s JobStatus) IsActive() bool {
	return s == StatusPending || s == StatusRunning
}

// ParseJobStatus converts a case-insensitive name into a JobStatus.
func ParseJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(strings.ToUpper(s)) {
	case StatusPending:
		return StatusPending, true
	case StatusRunning:
		return StatusRunning, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusFailed:
		return StatusFailed, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// isValidJobTransition checks the lifecycle shared by batch jobs and workflow runs.
//
//	PENDING -> RUNNING | CANCELLED | FAILED
//	RUNNING -> COMPLETED | FAILED | CANCELLED
//	FAILED  -> PENDING (retry only)
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case StatusPending:
		// FAILED covers an operation that cannot be resolved before the first item runs.
		return next == StatusRunning || next == StatusCancelled || next == StatusFailed
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	case StatusFailed:
		return next == StatusPending
	default:
		return false
	}
}

// NodeStatus represents the state of a single node execution inside a run.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "PENDING"
	NodeStatusRunning   NodeStatus = "RUNNING"
	NodeStatusCompleted NodeStatus = "COMPLETED"
	NodeStatusFailed    NodeStatus = "FAILED"
)

func (s NodeStatus) String() string {
	return string(s)
}

// WorkflowStatus is the administrative state of a workflow graph. It does not
// influence execution.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusPaused   WorkflowStatus = "paused"
	WorkflowStatusArchived WorkflowStatus = "archived"
)

// IsValid reports whether s is one of the known workflow states.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusPaused, WorkflowStatusArchived:
		return true
	}
	return false
}
