// Package sandbox provides the isolated execution environment for one
// analysis request. Each request gets a fresh remote code-interpreter
// instance with its own filesystem and process space; instances are never
// shared or reused and are torn down at request end.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// DatasetPath is the fixed location of the uploaded dataset inside the
// sandbox filesystem. It is exactly the path embedded into the system
// prompt, so the model's generated code and the actual file location are
// guaranteed consistent.
const DatasetPath = "./dataset.xlsx"

// DefaultTemplate is the code-interpreter template used for new sandboxes.
const DefaultTemplate = "code-interpreter-v1"

// DefaultBaseURL is the sandbox service endpoint.
const DefaultBaseURL = "https://api.e2b.dev"

// Config configures sandbox creation.
type Config struct {
	// Template is the sandbox template to instantiate.
	// Default: "code-interpreter-v1".
	Template string

	// BaseURL is the sandbox service endpoint. Overridable for testing.
	// Default: "https://api.e2b.dev".
	BaseURL string

	// Timeout bounds each HTTP call to the service.
	// Default: 180s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Template: DefaultTemplate,
		BaseURL:  DefaultBaseURL,
		Timeout:  180 * time.Second,
	}
}

// Option configures sandbox creation.
type Option func(*Config)

// WithTemplate sets the sandbox template.
func WithTemplate(template string) Option {
	return func(c *Config) {
		c.Template = template
	}
}

// WithBaseURL overrides the sandbox service endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// Sandbox is a live handle to one remote code-interpreter instance.
type Sandbox struct {
	id         string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	closed     bool
}

// ExecError is the structured error the service reports when the executed
// code itself fails (syntax error, runtime exception).
type ExecError struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Traceback string `json:"traceback"`
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.Value == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Value)
}

// Logs contains the stdout and stderr channels captured during execution,
// line by line.
type Logs struct {
	Stdout []string `json:"stdout"`
	Stderr []string `json:"stderr"`
}

// Execution is the raw outcome of running one code block in the sandbox.
type Execution struct {
	Results []core.RawResult `json:"results"`
	Logs    Logs             `json:"logs"`
	Error   *ExecError       `json:"error"`
}

type createRequest struct {
	TemplateID string `json:"templateID"`
}

type createResponse struct {
	SandboxID string `json:"sandboxID"`
}

type runRequest struct {
	Code string `json:"code"`
}

// New creates a fresh sandbox instance for one request.
func New(ctx context.Context, apiKey string, opts ...Option) (*Sandbox, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sandbox: api key is required")
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sb := &Sandbox{
		apiKey:  apiKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	body, err := sb.doRequest(ctx, "POST", "/sandboxes", jsonBody(createRequest{TemplateID: cfg.Template}), "application/json")
	if err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}

	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("create sandbox: unmarshal response: %w", err)
	}
	if resp.SandboxID == "" {
		return nil, fmt.Errorf("create sandbox: no sandbox id in response")
	}

	sb.id = resp.SandboxID
	return sb, nil
}

// ID returns the service-assigned sandbox identifier.
func (s *Sandbox) ID() string {
	return s.id
}

// WriteFile materializes data at path inside the sandbox filesystem.
func (s *Sandbox) WriteFile(ctx context.Context, path string, data io.Reader) error {
	endpoint := fmt.Sprintf("/sandboxes/%s/files?path=%s", s.id, url.QueryEscape(path))
	if _, err := s.doRequest(ctx, "POST", endpoint, data, "application/octet-stream"); err != nil {
		return fmt.Errorf("write file %s: %w", path, err)
	}
	return nil
}

// RunCode executes one code block inside the sandbox and returns the raw
// execution outcome. A non-nil error means the service could not be
// reached or answered malformed data; errors inside the executed code are
// reported via Execution.Error instead.
func (s *Sandbox) RunCode(ctx context.Context, code string) (*Execution, error) {
	endpoint := fmt.Sprintf("/sandboxes/%s/code", s.id)
	body, err := s.doRequest(ctx, "POST", endpoint, jsonBody(runRequest{Code: code}), "application/json")
	if err != nil {
		return nil, fmt.Errorf("run code: %w", err)
	}

	var exec Execution
	if err := json.Unmarshal(body, &exec); err != nil {
		return nil, fmt.Errorf("run code: unmarshal response: %w", err)
	}
	return &exec, nil
}

// Close tears down the sandbox instance. Safe to call more than once; only
// the first call reaches the service.
func (s *Sandbox) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	endpoint := fmt.Sprintf("/sandboxes/%s", s.id)
	if _, err := s.doRequest(ctx, "DELETE", endpoint, nil, ""); err != nil {
		return fmt.Errorf("close sandbox: %w", err)
	}
	return nil
}

func (s *Sandbox) doRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-API-Key", s.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func jsonBody(v any) io.Reader {
	data, _ := json.Marshal(v)
	return bytes.NewReader(data)
}
