// Package client is a typed HTTP client for the tracker API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker/internal/models"
	"tracker/internal/tracker"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	// Failed lists the task ids a reorder batch could not apply.
	Failed []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type errorBody struct {
	Error  string   `json:"error"`
	Failed []string `json:"failed"`
}

// Client talks to one tracker server on behalf of one session.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a client for baseURL (for example "http://localhost:8080")
// that sends token as a bearer credential.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Failed = eb.Failed
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func idPath(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}

// ListProjects returns the caller's projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, id string) (models.Project, error) {
	var out models.Project
	err := c.do(ctx, http.MethodGet, idPath("/projects", id), nil, &out)
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, in models.ProjectInput) (models.Project, error) {
	var out models.Project
	err := c.do(ctx, http.MethodPost, "/projects", in, &out)
	return out, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, p models.ProjectPatch) (models.Project, error) {
	var out models.Project
	err := c.do(ctx, http.MethodPut, idPath("/projects", id), p, &out)
	return out, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, idPath("/projects", id), nil, nil)
}

// DuplicateProject asks the server to copy a project under a suffixed name.
func (c *Client) DuplicateProject(ctx context.Context, id string) (models.Project, error) {
	var out models.Project
	err := c.do(ctx, http.MethodPost, idPath("/projects", id)+"/duplicate", nil, &out)
	return out, err
}

// ListTasks returns every task of the caller regardless of project.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var out models.Task
	err := c.do(ctx, http.MethodGet, idPath("/tasks", id), nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	var out models.Task
	err := c.do(ctx, http.MethodPost, "/tasks", in, &out)
	return out, err
}

// UpdateTask sends only the fields set on p. Cleared fields go out as null.
func (c *Client) UpdateTask(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	var out models.Task
	err := c.do(ctx, http.MethodPut, idPath("/tasks", id), p, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, idPath("/tasks", id), nil, nil)
}

// Reorder submits a drag-and-drop batch and returns the updated tasks.
func (c *Client) Reorder(ctx context.Context, moves []models.TaskMove) ([]models.Task, error) {
	req := struct {
		Updates []models.TaskMove `json:"updates"`
	}{Updates: moves}
	var resp struct {
		Message string        `json:"message"`
		Data    []models.Task `json:"data"`
	}
	if err := c.do(ctx, http.MethodPatch, "/tasks/reorder", req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Activity returns the newest activity entries. A zero limit uses the
// server default.
func (c *Client) Activity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	path := "/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.ActivityLog
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context) (tracker.Dashboard, error) {
	var out tracker.Dashboard
	err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/me", nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, p models.ProfilePatch) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPut, "/me", p, &out)
	return out, err
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}
