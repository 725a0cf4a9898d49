package domain

import (
	"errors"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidPriority = errors.New("unknown priority")
	ErrInvalidDeadline = errors.New("deadline must be an ISO date")
)

// ParsePriority validates a priority value. The empty string falls back to low.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	case "":
		return PriorityLow, nil
	default:
		return "", ErrInvalidPriority
	}
}

// Task is a user-owned unit of work as the API returns it. The ID is
// server-assigned and immutable once created.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline,omitempty"`
	Priority    Priority `json:"priority"`
}

// DeadlineDate returns the calendar-date part of the deadline. The API may
// return a full RFC3339 datetime; time-of-day is ignored for display.
func (t Task) DeadlineDate() string {
	if i := strings.IndexByte(t.Deadline, 'T'); i >= 0 {
		return t.Deadline[:i]
	}
	return t.Deadline
}

// TaskDraft holds the editable fields of a task before it exists or while it
// is being edited.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline"`
	Priority    Priority `json:"priority"`
}

// Validate performs the client-side pre-check before a draft is sent to the
// server. The server remains authoritative.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if _, err := ParsePriority(string(d.Priority)); err != nil {
		return err
	}
	if d.Deadline != "" {
		if _, err := time.Parse("2006-01-02", d.Deadline); err != nil {
			if _, err := time.Parse(time.RFC3339, d.Deadline); err != nil {
				return ErrInvalidDeadline
			}
		}
	}
	return nil
}

// IsZero reports whether nothing has been typed into the draft yet.
func (d TaskDraft) IsZero() bool {
	return d.Title == "" && d.Description == "" && d.Deadline == "" &&
		(d.Priority == "" || d.Priority == PriorityLow)
}
