package workflow

import (
	"context"
	"sync"

	"taskmaster/internal/domain"
	"taskmaster/internal/repository"
)

// State is the phase of the add/edit form.
type State int

const (
	// StateIdle means no draft is being edited and the add-form is empty.
	StateIdle State = iota
	// StateDrafting means the user is typing into the add-form or edit-modal.
	StateDrafting
	// StateSubmitting means a create or update call is in flight.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrafting:
		return "drafting"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// TaskWriter is the slice of the repository the workflow submits through.
type TaskWriter interface {
	Create(ctx context.Context, draft domain.TaskDraft) error
	Update(ctx context.Context, id string, draft domain.TaskDraft) error
}

// Workflow drives the add-form and the edit-modal. Both share the draft shape
// and the submit contract; they differ in target operation and in whether the
// modal is open.
type Workflow struct {
	repo TaskWriter

	mu       sync.Mutex
	state    State
	draft    domain.TaskDraft
	editOpen bool
	editID   string
	errMsg   string
}

func New(repo TaskWriter) *Workflow {
	return &Workflow{repo: repo, draft: domain.TaskDraft{Priority: domain.PriorityLow}}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// EditOpen reports whether the edit-modal is visible.
func (w *Workflow) EditOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editOpen
}

func (w *Workflow) Draft() domain.TaskDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Err returns the message from the last failed submit, cleared on the next
// submit, cancel or success.
func (w *Workflow) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

// SetTitle updates the draft, moving an idle form into drafting.
func (w *Workflow) SetTitle(v string) { w.edit(func(d *domain.TaskDraft) { d.Title = v }) }

// SetDescription updates the draft's description field.
func (w *Workflow) SetDescription(v string) { w.edit(func(d *domain.TaskDraft) { d.Description = v }) }

// SetDeadline updates the draft's deadline field (calendar date, may be empty).
func (w *Workflow) SetDeadline(v string) { w.edit(func(d *domain.TaskDraft) { d.Deadline = v }) }

// SetPriority updates the draft's priority field.
func (w *Workflow) SetPriority(p domain.Priority) {
	w.edit(func(d *domain.TaskDraft) { d.Priority = p })
}

func (w *Workflow) edit(apply func(*domain.TaskDraft)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return
	}
	apply(&w.draft)
	w.state = StateDrafting
}

// BeginEdit opens the edit-modal, seeding the draft from an existing task.
// The task's deadline is normalized to calendar-date form for the date field.
func (w *Workflow) BeginEdit(t domain.Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return
	}
	w.draft = domain.TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.DeadlineDate(),
		Priority:    t.Priority,
	}
	w.editID = t.ID
	w.editOpen = true
	w.state = StateDrafting
	w.errMsg = ""
}

// Cancel discards the draft, hides the modal and returns to idle.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return
	}
	w.reset()
}

// Submit dispatches the draft: an update when the edit-modal is open,
// otherwise a create. Success discards the draft and closes the modal;
// failure returns to drafting with the draft intact so the user can retry.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return nil
	}
	draft := w.draft
	editing := w.editOpen
	editID := w.editID
	w.state = StateSubmitting
	w.errMsg = ""
	w.mu.Unlock()

	var err error
	if editing {
		err = w.repo.Update(ctx, editID, draft)
	} else {
		err = w.repo.Create(ctx, draft)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateDrafting
		if editing {
			w.errMsg = repository.MsgUpdateFailed
		} else {
			w.errMsg = repository.MsgCreateFailed
		}
		return err
	}
	w.reset()
	return nil
}

// reset must be called with the lock held.
func (w *Workflow) reset() {
	w.draft = domain.TaskDraft{Priority: domain.PriorityLow}
	w.editOpen = false
	w.editID = ""
	w.state = StateIdle
	w.errMsg = ""
}
