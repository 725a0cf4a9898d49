package domain

import (
	"errors"
	"testing"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   TaskDraft
		wantErr error
	}{
		{"valid", TaskDraft{Title: "Buy milk", Priority: PriorityLow}, nil},
		{"valid with deadline", TaskDraft{Title: "Buy milk", Deadline: "2026-09-01"}, nil},
		{"valid rfc3339 deadline", TaskDraft{Title: "Buy milk", Deadline: "2026-09-01T00:00:00Z"}, nil},
		{"empty title", TaskDraft{Title: ""}, ErrEmptyTitle},
		{"whitespace title", TaskDraft{Title: "   "}, ErrEmptyTitle},
		{"bad priority", TaskDraft{Title: "x", Priority: "urgent"}, ErrInvalidPriority},
		{"bad deadline", TaskDraft{Title: "x", Deadline: "tomorrow"}, ErrInvalidDeadline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeadlineDate(t *testing.T) {
	tests := []struct {
		deadline string
		want     string
	}{
		{"2026-09-01T15:04:05Z", "2026-09-01"},
		{"2026-09-01", "2026-09-01"},
		{"", ""},
	}

	for _, tt := range tests {
		task := Task{Deadline: tt.deadline}
		if got := task.DeadlineDate(); got != tt.want {
			t.Errorf("DeadlineDate(%q) = %q, want %q", tt.deadline, got, tt.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority(""); err != nil || p != PriorityLow {
		t.Errorf("empty priority should default to low, got %q, %v", p, err)
	}
	if _, err := ParsePriority("medium"); err != nil {
		t.Errorf("ParsePriority(medium) failed: %v", err)
	}
	if _, err := ParsePriority("critical"); err == nil {
		t.Error("ParsePriority accepted an unknown value")
	}
}
