package repository

import (
	"context"
	"sync"

	"taskmaster/internal/domain"
	"taskmaster/internal/logger"
)

// User-facing messages for failed operations. The workflow reuses the create
// and update messages so the two layers cannot drift apart.
const (
	MsgLoadFailed   = "Failed to load tasks. Please try again."
	MsgCreateFailed = "Error adding task. Please check inputs and try again."
	MsgUpdateFailed = "Failed to update task."
	MsgDeleteFailed = "Failed to delete task."
)

// TaskAPI is the remote surface the repository drives. *api.Client satisfies it.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, draft domain.TaskDraft) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// TaskRepository owns the canonical in-memory task collection for the current
// session. Every operation reconciles the collection with the server response:
// nothing is mutated optimistically except appending a freshly created task.
//
// Operations are not queued or deduplicated. Concurrent calls each apply their
// own delta to the latest snapshot at resolution time, so two mutations of the
// same task resolve last-writer-wins.
type TaskRepository struct {
	api TaskAPI

	mu          sync.Mutex
	tasks       []domain.Task
	inFlight    int
	lastErr     string
	subscribers []func()
}

func NewTaskRepository(api TaskAPI) *TaskRepository {
	return &TaskRepository{api: api}
}

// Subscribe registers a listener invoked after every successful load or
// mutation. Listeners run outside the repository lock.
func (r *TaskRepository) Subscribe(fn func()) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current collection.
func (r *TaskRepository) Snapshot() []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Loading reports whether any operation is in flight.
func (r *TaskRepository) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight > 0
}

// Err returns the message of the most recent failed operation, or "" when the
// latest attempt started cleanly.
func (r *TaskRepository) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// LoadAll replaces the collection with the server's. On failure the previous
// collection is kept, favoring stale data over an empty dashboard. Call it
// once when the dashboard is first presented, not on every filter change.
func (r *TaskRepository) LoadAll(ctx context.Context) error {
	r.begin()

	tasks, err := r.api.ListTasks(ctx)
	if err != nil {
		logger.Error("failed to load tasks", "error", err)
		r.finish(MsgLoadFailed)
		return err
	}

	r.mu.Lock()
	r.tasks = tasks
	r.mu.Unlock()
	r.finish("")
	r.notify()
	return nil
}

// Create validates the draft, submits it and appends the returned task with
// its server-assigned id. On failure the collection and the caller's draft are
// left alone so the user can correct and retry.
func (r *TaskRepository) Create(ctx context.Context, draft domain.TaskDraft) error {
	if err := draft.Validate(); err != nil {
		r.setErr(MsgCreateFailed)
		return err
	}

	r.begin()

	created, err := r.api.CreateTask(ctx, draft)
	if err != nil {
		logger.Error("failed to create task", "error", err)
		r.finish(MsgCreateFailed)
		return err
	}

	r.mu.Lock()
	r.tasks = append(r.tasks, created)
	r.mu.Unlock()
	r.finish("")
	r.notify()
	return nil
}

// Update submits the draft for the given id and swaps in the server's
// representation. An id absent from the local collection is left as a silent
// no-op; ids are server-assigned, so that only happens after a racing delete.
func (r *TaskRepository) Update(ctx context.Context, id string, draft domain.TaskDraft) error {
	if err := draft.Validate(); err != nil {
		r.setErr(MsgUpdateFailed)
		return err
	}

	r.begin()

	updated, err := r.api.UpdateTask(ctx, id, draft)
	if err != nil {
		logger.Error("failed to update task", "task_id", id, "error", err)
		r.finish(MsgUpdateFailed)
		return err
	}

	r.mu.Lock()
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i] = updated
			break
		}
	}
	r.mu.Unlock()
	r.finish("")
	r.notify()
	return nil
}

// Delete removes the task with the given id from the server and then from the
// collection. Removing an id that is already gone locally is a no-op.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.begin()

	if err := r.api.DeleteTask(ctx, id); err != nil {
		logger.Error("failed to delete task", "task_id", id, "error", err)
		r.finish(MsgDeleteFailed)
		return err
	}

	r.mu.Lock()
	kept := r.tasks[:0]
	for _, t := range r.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.tasks = kept
	r.mu.Unlock()
	r.finish("")
	r.notify()
	return nil
}

// begin marks an operation in flight and clears the error slot for the new
// attempt.
func (r *TaskRepository) begin() {
	r.mu.Lock()
	r.inFlight++
	r.lastErr = ""
	r.mu.Unlock()
}

func (r *TaskRepository) finish(errMsg string) {
	r.mu.Lock()
	r.inFlight--
	if errMsg != "" {
		r.lastErr = errMsg
	}
	r.mu.Unlock()
}

func (r *TaskRepository) setErr(msg string) {
	r.mu.Lock()
	r.lastErr = msg
	r.mu.Unlock()
}

func (r *TaskRepository) notify() {
	r.mu.Lock()
	subs := make([]func(), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
