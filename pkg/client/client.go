package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

// DefaultTimeout bounds every request unless WithHTTPClient or WithTimeout
// says otherwise.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token for each request.
// An empty token means there is no session.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token() string { return string(t) }

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CEP         string        `json:"cep"`
	Tasks       []domain.Task `json:"tasks"`
}

// UpdateProjectRequest is the payload for updating a project.
// TasksToRemove is always serialized, as [] when nothing is removed.
type UpdateProjectRequest struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        string        `json:"status,omitempty"`
	CEP           string        `json:"cep"`
	Tasks         []domain.Task `json:"tasks"`
	TasksToRemove []int64       `json:"tasks_to_remove"`
}

// MarshalJSON keeps tasks and tasks_to_remove as arrays even when nil.
func (r UpdateProjectRequest) MarshalJSON() ([]byte, error) {
	type plain UpdateProjectRequest
	p := plain(r)
	if p.Tasks == nil {
		p.Tasks = []domain.Task{}
	}
	if p.TasksToRemove == nil {
		p.TasksToRemove = []int64{}
	}
	return json.Marshal(p)
}

// Client is the projectdesk API client.
type Client struct {
	baseURL        string
	tokens         TokenSource
	httpClient     *http.Client
	onUnauthorized func()
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithOnUnauthorized registers a callback invoked on every 401 response.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new API client. tokens may be nil for unauthenticated use
// (login only).
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- Auth ---

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, http.MethodPost, "/login", body, &resp, false); err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("client.Login: empty token in response")
	}
	return resp.Token, nil
}

// GetMe returns the authenticated user.
func (c *Client) GetMe(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/me", &u); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &u, nil
}

// --- Addresses ---

// LookupCEP resolves a postal code. Unknown codes yield ErrNotFound.
func (c *Client) LookupCEP(ctx context.Context, cep string) (*domain.Address, error) {
	var a domain.Address
	if err := c.get(ctx, "/cep/"+url.PathEscape(cep), &a); err != nil {
		return nil, fmt.Errorf("client.LookupCEP: %w", err)
	}
	if a.CEP == "" {
		a.CEP = cep
	}
	return &a, nil
}

// --- Projects ---

// ListProjects fetches one page of projects.
func (c *Client) ListProjects(ctx context.Context, page, perPage int) (*domain.Page, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	var p domain.Page
	if err := c.get(ctx, "/projects?"+params.Encode(), &p); err != nil {
		return nil, fmt.Errorf("client.ListProjects: %w", err)
	}
	return &p, nil
}

// GetProject fetches a single project with its address and tasks.
func (c *Client) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	if err := c.get(ctx, projectPath(id), &p); err != nil {
		return nil, fmt.Errorf("client.GetProject: %w", err)
	}
	return &p, nil
}

// CreateProject creates a project with its tasks.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*domain.Project, error) {
	if req.Tasks == nil {
		req.Tasks = []domain.Task{}
	}
	var created domain.Project
	if err := c.post(ctx, "/projects", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateProject: %w", err)
	}
	return &created, nil
}

// UpdateProject replaces a project's fields and task list.
func (c *Client) UpdateProject(ctx context.Context, id int64, req UpdateProjectRequest) (*domain.Project, error) {
	var updated domain.Project
	if err := c.doRequest(ctx, http.MethodPut, projectPath(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateProject: %w", err)
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, projectPath(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteProject: %w", err)
	}
	return nil
}

// --- Reports ---

// ProjectReport returns status distributions, optionally bounded by start
// date (YYYY-MM-DD). Empty bounds are omitted.
func (c *Client) ProjectReport(ctx context.Context, from, to string) (*domain.Report, error) {
	params := url.Values{}
	if from != "" {
		params.Set("start_date_from", from)
	}
	if to != "" {
		params.Set("start_date_to", to)
	}
	path := "/reports/projects"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var r domain.Report
	if err := c.get(ctx, path, &r); err != nil {
		return nil, fmt.Errorf("client.ProjectReport: %w", err)
	}
	return &r, nil
}

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	return c.send(ctx, method, path, body, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, body any, out any, authed bool) error {
	var token string
	if authed {
		token = c.tokens.Token()
		if token == "" {
			return ErrNoSession
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		httpErr := readHTTPError(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		c.logger.Warn("request rejected", "method", method, "path", path, "status", resp.StatusCode, "message", httpErr.Message)
		return httpErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readHTTPError builds an HTTPError from an error response, preferring the
// JSON "error" field, then "message", then the raw body.
func readHTTPError(resp *http.Response) *HTTPError {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil {
		if apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		if apiErr.Message != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
		}
	}
	msg := strings.TrimSpace(string(respBody))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}
