// Package main provides a CLI for analyzing tabular datasets with
// LLM-generated, sandbox-executed code.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/XiaoConstantine/vizagent-go/pkg/agent"
	"github.com/XiaoConstantine/vizagent-go/pkg/config"
	"github.com/XiaoConstantine/vizagent-go/pkg/core"
	"github.com/XiaoConstantine/vizagent-go/pkg/logger"
	"github.com/XiaoConstantine/vizagent-go/pkg/providers"
	"github.com/XiaoConstantine/vizagent-go/pkg/sandbox"
)

var (
	datasetFile = flag.String("dataset", "", "Path to the tabular dataset file (xlsx/xls/csv)")
	query       = flag.String("query", "", "Question to ask about the dataset")
	model       = flag.String("model", "", "Model to use (default from config, deepseek-coder)")
	configFile  = flag.String("config", "", "Path to YAML config file (optional)")
	outDir      = flag.String("out", "", "Directory for generated artifacts (default from config)")
	logDir      = flag.String("log-dir", "", "Directory for JSONL logs (optional)")
	verbose     = flag.Bool("verbose", false, "Enable verbose output")
	jsonOutput  = flag.Bool("json", false, "Output result summary as JSON")
)

// sandboxEnvKey names the environment variable holding the sandbox
// service key.
const sandboxEnvKey = "E2B_API_KEY"

// Result represents the JSON output format.
type Result struct {
	RequestID string `json:"request_id"`
	Reply     string `json:"reply"`
	Artifacts []struct {
		Kind string `json:"kind"`
		Path string `json:"path,omitempty"`
	} `json:"artifacts"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	Stdout      string   `json:"stdout,omitempty"`
	Stderr      string   `json:"stderr,omitempty"`
	Failed      bool     `json:"failed"`
	Duration    string   `json:"duration"`
	Tokens      struct {
		Prompt     int `json:"prompt"`
		Completion int `json:"completion"`
		Total      int `json:"total"`
	} `json:"tokens"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `vizagent - AI data visualization agent

Usage:
  vizagent -dataset <file> -query "your question"

Examples:
  vizagent -dataset sales.xlsx -query "Plot monthly revenue"
  vizagent -dataset data.xlsx -query "Which region grew fastest?" -verbose
  vizagent -dataset data.xlsx -query "Visualize the data" -json

Credentials (checked before any network call):
  DEEPSEEK_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY  model service key
  E2B_API_KEY                                            sandbox service key

Options:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *datasetFile == "" {
		flag.Usage()
		return fmt.Errorf("-dataset is required")
	}
	if *query == "" {
		flag.Usage()
		return fmt.Errorf("-query is required")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *logDir != "" {
		cfg.Output.LogDir = *logDir
	}

	// Both keys are checked eagerly: a missing key blocks the action
	// before any network call is made.
	provider := providers.GetProvider(cfg.Model)
	modelKey, err := requireKey(provider.EnvKey())
	if err != nil {
		return err
	}
	sandboxKey, err := requireKey(sandboxEnvKey)
	if err != nil {
		return err
	}

	llm, err := buildLLMClient(cfg, modelKey)
	if err != nil {
		return err
	}

	sandboxOpts := []sandbox.Option{
		sandbox.WithTemplate(cfg.Sandbox.Template),
		sandbox.WithTimeout(cfg.Sandbox.Timeout),
	}
	if cfg.Sandbox.BaseURL != "" {
		sandboxOpts = append(sandboxOpts, sandbox.WithBaseURL(cfg.Sandbox.BaseURL))
	}
	factory := agent.NewSandboxFactory(sandboxKey, sandboxOpts...)

	agentOpts := []agent.Option{agent.WithVerbose(*verbose)}

	var log *logger.Logger
	if cfg.Output.LogDir != "" {
		log, err = logger.New(cfg.Output.LogDir, logger.Config{
			Model:           cfg.Model,
			SandboxTemplate: cfg.Sandbox.Template,
			DatasetName:     filepath.Base(*datasetFile),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create logger: %v\n", err)
		} else {
			defer func() { _ = log.Close() }()
			agentOpts = append(agentOpts, agent.WithLogger(log))
			if *verbose {
				fmt.Fprintf(os.Stderr, "Logging to: %s\n", log.Path())
			}
		}
	}

	f, err := os.Open(*datasetFile)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	a := agent.New(llm, factory, agentOpts...)

	if *verbose {
		fmt.Fprintf(os.Stderr, "Model: %s\n", cfg.Model)
		fmt.Fprintf(os.Stderr, "Dataset: %s\n", *datasetFile)
		fmt.Fprintf(os.Stderr, "Sandbox template: %s\n\n", cfg.Sandbox.Template)
	}

	result, err := a.Analyze(context.Background(), f, *query)
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(cfg.Output.Dir, result)
	if err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON(result, paths)
	}
	printResult(result, paths)
	return nil
}

// buildLLMClient creates the completion client, honoring a configured
// base-URL override for OpenAI-compatible providers.
func buildLLMClient(cfg config.Config, apiKey string) (providers.Client, error) {
	if cfg.LLM.BaseURL != "" {
		switch providers.GetProvider(cfg.Model) {
		case providers.DeepSeek, providers.OpenAI:
			return providers.NewCompatibleClient(apiKey, cfg.Model, cfg.LLM.BaseURL, *verbose), nil
		}
	}
	return providers.ForModel(cfg.Model, apiKey, *verbose)
}

// requireKey reads a credential from the environment, falling back to an
// interactive prompt when stdin is a terminal. There are no built-in
// defaults: an absent key blocks the action.
func requireKey(envKey string) (string, error) {
	if key := os.Getenv(envKey); key != "" {
		return key, nil
	}
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprintf(os.Stderr, "%s not set. Enter key: ", envKey)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err == nil && len(raw) > 0 {
			return string(raw), nil
		}
	}
	return "", fmt.Errorf("%s is not set", envKey)
}

// writeArtifacts persists renderable artifacts to the output directory and
// returns the written path per artifact index ("" for artifacts rendered
// inline only).
func writeArtifacts(dir string, result *core.AnalysisResult) (map[int]string, error) {
	artifacts := result.Artifacts()
	paths := make(map[int]string, len(artifacts))
	if len(artifacts) == 0 {
		return paths, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	short := result.RequestID
	if len(short) > 8 {
		short = short[:8]
	}

	for i, a := range artifacts {
		var name string
		var data []byte
		switch a.Kind {
		case core.KindImage:
			name = fmt.Sprintf("%s_%d.png", short, i)
			data = a.Image
		case core.KindFigure:
			name = fmt.Sprintf("%s_%d.svg", short, i)
			data = []byte(a.SVG)
		case core.KindChart:
			name = fmt.Sprintf("%s_%d.html", short, i)
			data = []byte(a.Chart)
		default:
			// Tables and generics are rendered inline.
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write artifact: %w", err)
		}
		paths[i] = path
	}
	return paths, nil
}

// printResult renders the analysis to the terminal.
func printResult(result *core.AnalysisResult, paths map[int]string) {
	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", d.Severity, d.Message)
	}

	fmt.Println(result.ReplyText)

	if result.Outcome == nil {
		return
	}
	if result.Outcome.Stdout != "" {
		fmt.Println("\n[output]")
		fmt.Println(result.Outcome.Stdout)
	}
	if result.Outcome.Stderr != "" {
		fmt.Fprintln(os.Stderr, "\n[stderr]")
		fmt.Fprintln(os.Stderr, result.Outcome.Stderr)
	}

	for i, a := range result.Outcome.Artifacts {
		switch a.Kind {
		case core.KindTable:
			fmt.Println()
			printTable(a.Table)
		case core.KindGeneric:
			fmt.Println()
			fmt.Println(a.Text)
		default:
			if path, ok := paths[i]; ok {
				fmt.Printf("\nSaved %s artifact: %s\n", a.Kind, path)
			}
		}
	}
}

// printTable renders a table clamped to the terminal width.
func printTable(t *core.Table) {
	width := 120
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	cols := len(t.Columns)
	if cols == 0 {
		return
	}
	cellWidth := width/cols - 3
	if cellWidth < 4 {
		cellWidth = 4
	}

	printRow(t.Columns, cellWidth)
	fmt.Println(strings.Repeat("-", min(width, (cellWidth+3)*cols)))
	for _, row := range t.Rows {
		printRow(row, cellWidth)
	}
}

func printRow(cells []string, cellWidth int) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if len(c) > cellWidth {
			c = c[:cellWidth-1] + "…"
		}
		parts[i] = fmt.Sprintf("%-*s", cellWidth, c)
	}
	fmt.Println(strings.Join(parts, " | "))
}

// printJSON emits the result summary as indented JSON.
func printJSON(result *core.AnalysisResult, paths map[int]string) error {
	out := Result{
		RequestID: result.RequestID,
		Reply:     result.ReplyText,
		Duration:  result.Duration.String(),
	}
	out.Tokens.Prompt = result.Usage.PromptTokens
	out.Tokens.Completion = result.Usage.CompletionTokens
	out.Tokens.Total = result.Usage.TotalTokens

	for _, d := range result.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("%s: %s", d.Severity, d.Message))
	}
	if result.Outcome != nil {
		out.Stdout = result.Outcome.Stdout
		out.Stderr = result.Outcome.Stderr
		out.Failed = result.Outcome.Failed
	}
	for i, a := range result.Artifacts() {
		out.Artifacts = append(out.Artifacts, struct {
			Kind string `json:"kind"`
			Path string `json:"path,omitempty"`
		}{Kind: string(a.Kind), Path: paths[i]})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
