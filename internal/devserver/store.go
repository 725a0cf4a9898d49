package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"

	"taskmaster/internal/domain"
)

var (
	ErrUserExists     = errors.New("username already taken")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrTaskNotFound   = errors.New("task not found")
)

// Store keeps users and their task collections in memory so the dev server
// runs with zero setup. Everything is lost on restart, which is fine for a
// stand-in backend.
type Store struct {
	mu     sync.Mutex
	users  map[string]string // username -> password hash
	tasks  map[string][]domain.Task
	nextID int64
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]string),
		tasks:  make(map[string][]domain.Task),
		nextID: 1,
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *Store) CreateUser(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = hashPassword(password)
	return nil
}

func (s *Store) Authenticate(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.users[username]
	if !ok || hash != hashPassword(password) {
		return ErrBadCredentials
	}
	return nil
}

func (s *Store) ListTasks(username string) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, len(s.tasks[username]))
	copy(out, s.tasks[username])
	return out
}

func (s *Store) CreateTask(username string, draft domain.TaskDraft) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := taskFromDraft(draft)
	t.ID = strconv.FormatInt(s.nextID, 10)
	s.nextID++
	s.tasks[username] = append(s.tasks[username], t)
	return t
}

func (s *Store) UpdateTask(username, id string, draft domain.TaskDraft) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tasks[username]
	for i := range list {
		if list[i].ID == id {
			t := taskFromDraft(draft)
			t.ID = id
			list[i] = t
			return t, nil
		}
	}
	return domain.Task{}, ErrTaskNotFound
}

func (s *Store) DeleteTask(username, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tasks[username]
	for i := range list {
		if list[i].ID == id {
			s.tasks[username] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

func taskFromDraft(d domain.TaskDraft) domain.Task {
	priority := d.Priority
	if priority == "" {
		priority = domain.PriorityLow
	}
	return domain.Task{
		Title:       d.Title,
		Description: d.Description,
		Deadline:    d.Deadline,
		Priority:    priority,
	}
}
