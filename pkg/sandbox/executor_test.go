package sandbox

import (
	"context"
	"fmt"
	"testing"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// fakeRunner returns a canned execution or a transport error.
type fakeRunner struct {
	exec *Execution
	err  error
}

func (f *fakeRunner) RunCode(_ context.Context, _ string) (*Execution, error) {
	return f.exec, f.err
}

func TestRunCapturesStreams(t *testing.T) {
	runner := &fakeRunner{exec: &Execution{
		Results: []core.RawResult{{Data: map[string]string{"text/plain": "ok"}}},
		Logs: Logs{
			Stdout: []string{"2"},
			Stderr: []string{"something went to stderr"},
		},
	}}

	capture, err := Run(context.Background(), runner, "print(2)")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if capture.Failed {
		t.Error("Failed = true, want false")
	}
	if capture.Stdout != "2" {
		t.Errorf("Stdout = %q, want 2", capture.Stdout)
	}
	if capture.Stderr != "something went to stderr" {
		t.Errorf("Stderr = %q", capture.Stderr)
	}
	if len(capture.Results) != 1 {
		t.Errorf("Results length = %d, want 1", len(capture.Results))
	}
}

func TestRunExecutionFaultIsNotAGoError(t *testing.T) {
	runner := &fakeRunner{exec: &Execution{
		Results: []core.RawResult{{Data: map[string]string{"text/plain": "partial"}}},
		Error:   &ExecError{Name: "SyntaxError", Value: "invalid syntax"},
	}}

	capture, err := Run(context.Background(), runner, "def broken(")
	if err != nil {
		t.Fatalf("Run() error: %v, want nil for in-code faults", err)
	}
	if !capture.Failed {
		t.Error("Failed = false, want true")
	}
	if capture.ErrorMessage != "SyntaxError: invalid syntax" {
		t.Errorf("ErrorMessage = %q", capture.ErrorMessage)
	}
	// Failed implies no results, even when the service reported some.
	if len(capture.Results) != 0 {
		t.Errorf("Results length = %d, want 0 on failure", len(capture.Results))
	}
}

func TestRunTransportErrorPropagates(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("connection refused")}

	if _, err := Run(context.Background(), runner, "print(1)"); err == nil {
		t.Fatal("Run() succeeded, want transport error")
	}
}

func TestFilterWarnings(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "empty input",
			lines: nil,
			want:  nil,
		},
		{
			name:  "plain errors pass through",
			lines: []string{"Traceback (most recent call last):", "ValueError: bad value"},
			want:  []string{"Traceback (most recent call last):", "ValueError: bad value"},
		},
		{
			name: "warning category lines dropped",
			lines: []string{
				"/usr/lib/python3/site-packages/pandas/core/frame.py:123: FutureWarning: use_inf_as_na is deprecated",
				"  warnings.warn(msg)",
				"ValueError: still visible",
			},
			want: []string{"ValueError: still visible"},
		},
		{
			name:  "deprecation warning dropped",
			lines: []string{"DeprecationWarning: distutils is deprecated"},
			want:  nil,
		},
		{
			name:  "user warning dropped",
			lines: []string{"UserWarning: pydantic version mismatch"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterWarnings(tt.lines)
			if len(got) != len(tt.want) {
				t.Fatalf("filterWarnings() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
