// Package logger provides JSONL logging for analysis sessions.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// Logger writes one analysis session log in JSONL format: a metadata entry
// first, then one entry per analyze request.
type Logger struct {
	file      *os.File
	startTime time.Time
}

// Config holds logger configuration.
type Config struct {
	Model           string
	SandboxTemplate string
	DatasetName     string
}

// MetadataEntry represents the first line of a JSONL log file.
type MetadataEntry struct {
	Type            string `json:"type"`
	Timestamp       string `json:"timestamp"`
	Model           string `json:"model"`
	SandboxTemplate string `json:"sandbox_template"`
	DatasetName     string `json:"dataset_name,omitempty"`
}

// AnalysisEntry represents one analyze request in the log.
type AnalysisEntry struct {
	Type             string            `json:"type"`
	RequestID        string            `json:"request_id"`
	Timestamp        string            `json:"timestamp"`
	Query            string            `json:"query"`
	Reply            string            `json:"reply"`
	Code             string            `json:"code,omitempty"`
	Execution        *ExecutionEntry   `json:"execution,omitempty"`
	Diagnostics      []DiagnosticEntry `json:"diagnostics,omitempty"`
	RequestTime      float64           `json:"request_time"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
}

// ExecutionEntry represents the execution outcome in the log.
type ExecutionEntry struct {
	Stdout        string   `json:"stdout"`
	Stderr        string   `json:"stderr"`
	Failed        bool     `json:"failed"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	ArtifactKinds []string `json:"artifact_kinds"`
}

// DiagnosticEntry represents one surfaced diagnostic.
type DiagnosticEntry struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// New creates a new Logger and writes the metadata entry.
func New(logDir string, cfg Config) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("vizagent_%s_%s.jsonl",
		now.Format("2006-01-02_15-04-05"),
		generateSessionID(),
	)
	path := filepath.Join(logDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l := &Logger{
		file:      file,
		startTime: now,
	}

	metadata := MetadataEntry{
		Type:            "metadata",
		Timestamp:       now.Format(time.RFC3339Nano),
		Model:           cfg.Model,
		SandboxTemplate: cfg.SandboxTemplate,
		DatasetName:     cfg.DatasetName,
	}

	if err := l.writeEntry(metadata); err != nil {
		file.Close()
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return l, nil
}

// LogAnalysis logs one analyze request.
func (l *Logger) LogAnalysis(query, code string, result *core.AnalysisResult) error {
	entry := AnalysisEntry{
		Type:             "analysis",
		RequestID:        result.RequestID,
		Timestamp:        time.Now().Format(time.RFC3339Nano),
		Query:            query,
		Reply:            result.ReplyText,
		Code:             code,
		RequestTime:      result.Duration.Seconds(),
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
	}

	if result.Outcome != nil {
		kinds := make([]string, len(result.Outcome.Artifacts))
		for i, a := range result.Outcome.Artifacts {
			kinds[i] = string(a.Kind)
		}
		entry.Execution = &ExecutionEntry{
			Stdout:        result.Outcome.Stdout,
			Stderr:        result.Outcome.Stderr,
			Failed:        result.Outcome.Failed,
			ErrorMessage:  result.Outcome.ErrorMessage,
			ArtifactKinds: kinds,
		}
	}

	for _, d := range result.Diagnostics {
		entry.Diagnostics = append(entry.Diagnostics, DiagnosticEntry{
			Severity: string(d.Severity),
			Message:  d.Message,
		})
	}

	return l.writeEntry(entry)
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}

func (l *Logger) writeEntry(entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = l.file.Write(append(data, '\n'))
	return err
}

func generateSessionID() string {
	return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
}
