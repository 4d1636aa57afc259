// Package agent runs the analyze pipeline: prompt construction, model
// completion, code extraction, sandboxed execution and result
// classification for one request at a time.
package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/vizagent-go/pkg/classify"
	"github.com/XiaoConstantine/vizagent-go/pkg/core"
	"github.com/XiaoConstantine/vizagent-go/pkg/logger"
	"github.com/XiaoConstantine/vizagent-go/pkg/parsing"
	"github.com/XiaoConstantine/vizagent-go/pkg/prompt"
	"github.com/XiaoConstantine/vizagent-go/pkg/providers"
	"github.com/XiaoConstantine/vizagent-go/pkg/sandbox"
)

// SandboxHandle is the per-request execution environment. *sandbox.Sandbox
// implements it; tests substitute fakes.
type SandboxHandle interface {
	WriteFile(ctx context.Context, path string, data io.Reader) error
	RunCode(ctx context.Context, code string) (*sandbox.Execution, error)
	Close(ctx context.Context) error
}

// SandboxFactory creates a fresh sandbox for one request. Factories must
// never hand out a shared or reused instance: concurrent Analyze calls
// each get their own sandbox.
type SandboxFactory func(ctx context.Context) (SandboxHandle, error)

// NewSandboxFactory returns a factory backed by the remote
// code-interpreter service.
func NewSandboxFactory(apiKey string, opts ...sandbox.Option) SandboxFactory {
	return func(ctx context.Context) (SandboxHandle, error) {
		return sandbox.New(ctx, apiKey, opts...)
	}
}

// Config holds agent configuration.
type Config struct {
	// DatasetPath is where the dataset is materialized inside the sandbox
	// and the path embedded into the system prompt. Default:
	// sandbox.DatasetPath.
	DatasetPath string

	// SystemPrompt overrides the default system prompt. When set, the
	// caller is responsible for keeping any embedded dataset path
	// consistent with DatasetPath.
	SystemPrompt string

	// Verbose enables progress output on stderr.
	Verbose bool

	// Logger is the optional JSONL session logger.
	Logger *logger.Logger
}

// DefaultConfig returns the default agent configuration.
func DefaultConfig() Config {
	return Config{
		DatasetPath: sandbox.DatasetPath,
	}
}

// Option configures the agent.
type Option func(*Config)

// WithDatasetPath sets the in-sandbox dataset path.
func WithDatasetPath(path string) Option {
	return func(c *Config) {
		c.DatasetPath = path
	}
}

// WithSystemPrompt sets a custom system prompt.
func WithSystemPrompt(p string) Option {
	return func(c *Config) {
		c.SystemPrompt = p
	}
}

// WithVerbose enables verbose output.
func WithVerbose(v bool) Option {
	return func(c *Config) {
		c.Verbose = v
	}
}

// WithLogger sets the JSONL session logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// Agent orchestrates one analyze request at a time. It holds no mutable
// per-request state, so a single Agent is safe for concurrent use; each
// request gets its own sandbox and conversation.
type Agent struct {
	llm        providers.Client
	newSandbox SandboxFactory
	config     Config
}

// New creates an Agent. llm performs the model completion call and
// newSandbox provides the per-request execution environment.
func New(llm providers.Client, newSandbox SandboxFactory, opts ...Option) *Agent {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Agent{
		llm:        llm,
		newSandbox: newSandbox,
		config:     cfg,
	}
}

// Analyze answers one natural-language query about the dataset. The
// returned result always carries the model's reply text; execution
// failures and a reply without code surface as diagnostics, not errors.
// A non-nil error means the request could not complete at all: sandbox
// acquisition, dataset materialization, the model call or the sandbox
// transport failed.
//
// Both remote calls block with no retry; a slow endpoint stalls the
// request until ctx is done.
func (a *Agent) Analyze(ctx context.Context, dataset io.Reader, query string) (*core.AnalysisResult, error) {
	start := time.Now()

	sb, err := a.newSandbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sandbox: %w", err)
	}
	// Teardown runs on every exit path, and still runs when ctx was
	// canceled mid-request.
	defer func() { _ = sb.Close(context.WithoutCancel(ctx)) }()

	// Materialize the dataset before anything else. A write failure
	// terminates the request: no model call, no execution.
	if err := sb.WriteFile(ctx, a.config.DatasetPath, dataset); err != nil {
		return nil, fmt.Errorf("materialize dataset: %w", err)
	}

	messages := a.buildConversation(query)

	if a.config.Verbose {
		fmt.Fprintf(os.Stderr, "[agent] requesting completion (%d messages)\n", len(messages))
	}

	llmResp, err := a.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	result := &core.AnalysisResult{
		RequestID: uuid.New().String(),
		ReplyText: llmResp.Content,
		Usage: core.UsageStats{
			PromptTokens:     llmResp.PromptTokens,
			CompletionTokens: llmResp.CompletionTokens,
			TotalTokens:      llmResp.PromptTokens + llmResp.CompletionTokens,
		},
	}

	code := parsing.FirstCodeBlock(llmResp.Content)
	if code == "" {
		// ParseMiss: execution is skipped entirely, the reply is still
		// returned to the caller.
		result.Diagnostics = append(result.Diagnostics, core.Diagnostic{
			Severity: core.SeverityWarning,
			Message:  "no code block found in model response",
		})
		result.Duration = time.Since(start)
		a.logAnalysis(query, code, result)
		return result, nil
	}

	if a.config.Verbose {
		fmt.Fprintf(os.Stderr, "[agent] executing %d bytes of generated code\n", len(code))
	}

	capture, err := sandbox.Run(ctx, sb, code)
	if err != nil {
		return nil, err
	}

	outcome := &core.ExecutionOutcome{
		Stdout:       capture.Stdout,
		Stderr:       capture.Stderr,
		Failed:       capture.Failed,
		ErrorMessage: capture.ErrorMessage,
	}
	if capture.Failed {
		result.Diagnostics = append(result.Diagnostics, core.Diagnostic{
			Severity: core.SeverityError,
			Message:  fmt.Sprintf("code execution failed: %s", capture.ErrorMessage),
		})
	} else {
		outcome.Artifacts = classify.Classify(capture.Results)
	}
	result.Outcome = outcome

	result.Duration = time.Since(start)
	a.logAnalysis(query, code, result)
	return result, nil
}

// buildConversation returns the fresh two-message conversation for one
// request.
func (a *Agent) buildConversation(query string) []core.Message {
	if a.config.SystemPrompt != "" {
		return prompt.BuildWithSystem(a.config.SystemPrompt, query)
	}
	return prompt.Build(a.config.DatasetPath, query)
}

func (a *Agent) logAnalysis(query, code string, result *core.AnalysisResult) {
	if a.config.Logger == nil {
		return
	}
	if err := a.config.Logger.LogAnalysis(query, code, result); err != nil && a.config.Verbose {
		fmt.Fprintf(os.Stderr, "[agent] warning: could not write log entry: %v\n", err)
	}
}
