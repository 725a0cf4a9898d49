package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskmaster/internal/domain"
)

// TokenSource supplies the bearer credential for task-collection calls.
// It is consulted on every request so a logout elsewhere takes effect
// immediately. *session.Store satisfies it.
type TokenSource interface {
	Token() string
}

// Client talks to the remote Task Master API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL. The base URL is the
// server root; paths like api/tasks are resolved against it.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx response from the server with its decoded message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token. The optional message is the
// server's human-readable status line.
func (c *Client) Login(ctx context.Context, username, password string) (token, message string, err error) {
	var resp loginResponse
	err = c.do(ctx, http.MethodPost, "api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp, false)
	if err != nil {
		return "", "", err
	}
	if resp.Token == "" {
		return "", "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, resp.Message, nil
}

// Register creates an account and returns the server's message.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "api/auth/register", map[string]string{
		"username": username,
		"password": password,
	}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListTasks fetches the full task collection for the current session.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "api/tasks", nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask submits a draft and returns the created task with its
// server-assigned id.
func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	var t domain.Task
	if err := c.do(ctx, http.MethodPost, "api/tasks", draft, &t, true); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// UpdateTask submits a draft for an existing task and returns the server's
// representation.
func (c *Client) UpdateTask(ctx context.Context, id string, draft domain.TaskDraft) (domain.Task, error) {
	var t domain.Task
	path := "api/tasks/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, draft, &t, true); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task. The server does not have to return a body.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	path := "api/tasks/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body, resp.Status),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeErrorMessage pulls a human-readable message out of an error body.
// The server answers either {"message": ...} or {"error": ...}.
func decodeErrorMessage(r io.Reader, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}
