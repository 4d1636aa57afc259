// Package core provides core types for vizagent-go.
package core

import "time"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMResponse represents the response from an LLM call with usage metadata.
type LLMResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// UsageStats tracks token usage for one analysis request.
type UsageStats struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RawResult is one display value returned by the sandbox for an executed
// code block. Payloads are keyed by MIME type; the executor treats them as
// opaque and the classifier decides how each one is rendered.
type RawResult struct {
	// Data maps MIME type to payload. Binary payloads (image/png) are
	// base64-encoded by the sandbox service.
	Data map[string]string `json:"data"`
}

// Text returns the plain-text payload of the result, if any.
func (r RawResult) Text() string {
	return r.Data["text/plain"]
}

// ArtifactKind discriminates the renderable artifact variants.
type ArtifactKind string

const (
	// KindImage is a decoded raster image (PNG bytes).
	KindImage ArtifactKind = "image"

	// KindFigure is a static vector figure (SVG text).
	KindFigure ArtifactKind = "figure"

	// KindChart is an interactive chart spec (plotly JSON or HTML).
	KindChart ArtifactKind = "chart"

	// KindTable is tabular data parsed into rows.
	KindTable ArtifactKind = "table"

	// KindGeneric is the textual form of anything else.
	KindGeneric ArtifactKind = "generic"
)

// Artifact is a classified, render-ready value derived from a RawResult.
// Exactly one payload field is populated, selected by Kind.
type Artifact struct {
	Kind ArtifactKind

	Image []byte // Kind == KindImage
	SVG   string // Kind == KindFigure
	Chart string // Kind == KindChart
	Table *Table // Kind == KindTable
	Text  string // Kind == KindGeneric
}

// Table holds tabular data parsed from a sandbox result.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ExecutionOutcome is the result of running one extracted code block.
// Either Failed is true and Artifacts is empty, or Failed is false and
// Artifacts holds zero or more classified values - never both.
type ExecutionOutcome struct {
	Artifacts    []Artifact
	Stdout       string
	Stderr       string
	Failed       bool
	ErrorMessage string
}

// Severity grades a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a user-visible, non-fatal message produced by the pipeline.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// AnalysisResult is the final result of one analyze request.
type AnalysisResult struct {
	// RequestID uniquely identifies the request across logs and artifacts.
	RequestID string

	// ReplyText is the model's full textual reply, always returned even
	// when no code block was found or execution failed.
	ReplyText string

	// Outcome is nil when no code was executed.
	Outcome *ExecutionOutcome

	// Diagnostics carries warnings and errors surfaced alongside results.
	Diagnostics []Diagnostic

	Duration time.Duration
	Usage    UsageStats
}

// Artifacts returns the classified artifacts, or nil when nothing ran.
func (r *AnalysisResult) Artifacts() []Artifact {
	if r.Outcome == nil {
		return nil
	}
	return r.Outcome.Artifacts
}
