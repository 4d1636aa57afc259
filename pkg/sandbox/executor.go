package sandbox

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// Runner runs one code block and reports the raw execution outcome.
// *Sandbox implements it; tests substitute fakes.
type Runner interface {
	RunCode(ctx context.Context, code string) (*Execution, error)
}

// Capture is the normalized outcome of one execution: raw results plus
// flattened, warning-filtered output streams. Invariant: Failed implies
// Results is empty.
type Capture struct {
	Results      []core.RawResult
	Stdout       string
	Stderr       string
	Failed       bool
	ErrorMessage string
}

// Run executes code through the runner and captures the outcome. Errors
// inside the executed code (syntax errors, runtime exceptions) never
// surface as a Go error; they set Failed and ErrorMessage on the capture.
// A non-nil error means the sandbox service itself was unreachable or
// answered malformed data.
func Run(ctx context.Context, r Runner, code string) (*Capture, error) {
	exec, err := r.RunCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("sandbox execution: %w", err)
	}

	capture := &Capture{
		Stdout: strings.Join(exec.Logs.Stdout, "\n"),
		Stderr: strings.Join(filterWarnings(exec.Logs.Stderr), "\n"),
	}

	if exec.Error != nil {
		capture.Failed = true
		capture.ErrorMessage = exec.Error.Error()
		return capture, nil
	}

	capture.Results = exec.Results
	return capture, nil
}

// warningLineRe matches Python warning output, e.g. "FutureWarning: ..."
// or the "warnings.warn(...)" source line echoed beneath it.
var warningLineRe = regexp.MustCompile(`\b[A-Za-z]+Warning\b|^\s*warnings\.warn`)

// filterWarnings drops incidental library warning lines from stderr so
// they neither pollute the capture nor read as failure signals. Everything
// else passes through untouched.
func filterWarnings(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if warningLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
