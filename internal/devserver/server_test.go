package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"taskmaster/internal/domain"

	"github.com/gin-gonic/gin"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer("test-secret").RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "secret",
	}); w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response: %s", w.Body.String())
	}
	return resp.Token
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := newTestEngine(t)
	registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "other",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", w.Code)
	}
}

func TestLoginBadPassword(t *testing.T) {
	r := newTestEngine(t)
	registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", w.Code)
	}
}

func TestAuthRateLimitUnderConcurrentLoad(t *testing.T) {
	r := newTestEngine(t)

	// All requests share the recorder's fixed client IP, so exactly the
	// per-window allowance gets through regardless of interleaving.
	const total = 50
	var blocked atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
				"username": "ghost", "password": "x",
			})
			if w.Code == http.StatusTooManyRequests {
				blocked.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := int(blocked.Load()); got != total-20 {
		t.Fatalf("blocked %d of %d requests, want %d", got, total, total-20)
	}
}

func TestTasksRequireBearerToken(t *testing.T) {
	r := newTestEngine(t)

	if w := doJSON(t, r, http.MethodGet, "/api/tasks", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/tasks", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", w.Code)
	}
}

func TestTaskCRUDRoundTrip(t *testing.T) {
	r := newTestEngine(t)
	token := registerAndLogin(t, r)

	// create
	w := doJSON(t, r, http.MethodPost, "/api/tasks", token, domain.TaskDraft{
		Title: "Buy milk", Priority: domain.PriorityLow, Deadline: "2026-09-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created domain.Task
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("server did not assign an id")
	}

	// list
	w = doJSON(t, r, http.MethodGet, "/api/tasks", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var listed []domain.Task
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0] != created {
		t.Fatalf("list = %v, want [%v]", listed, created)
	}

	// update
	w = doJSON(t, r, http.MethodPut, "/api/tasks/"+created.ID, token, domain.TaskDraft{
		Title: "Buy oat milk", Priority: domain.PriorityHigh,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var updated domain.Task
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.ID != created.ID || updated.Title != "Buy oat milk" {
		t.Fatalf("updated = %+v", updated)
	}

	// delete
	if w = doJSON(t, r, http.MethodDelete, "/api/tasks/"+created.ID, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodDelete, "/api/tasks/"+created.ID, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	r := newTestEngine(t)
	token := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/tasks", token, domain.TaskDraft{Title: ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty title: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]string{
		"title": "x", "priority": "urgent",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad priority: %d", w.Code)
	}
}

func TestTasksAreScopedPerUser(t *testing.T) {
	r := newTestEngine(t)
	tokenA := registerAndLogin(t, r)

	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "password": "secret",
	}); w.Code != http.StatusCreated {
		t.Fatalf("register bob: %d", w.Code)
	}
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "bob", "password": "secret",
	})
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login bob: %v", err)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/tasks", tokenA, domain.TaskDraft{Title: "alice's"}); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/tasks", resp.Token, nil)
	var listed []domain.Task
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("bob sees alice's tasks: %v", listed)
	}
}
