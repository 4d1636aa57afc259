// Package parsing provides utilities for extracting code blocks from LLM responses.
package parsing

import (
	"regexp"
	"strings"
)

// pythonCodeBlockRe matches ```python fenced blocks.
// (?s) enables DOTALL mode so . matches newlines.
var pythonCodeBlockRe = regexp.MustCompile("(?s)```python\\s*\\n(.*?)\\n```")

// FirstCodeBlock extracts the first ```python code block from the LLM
// response and returns its inner text with surrounding whitespace trimmed.
//
// First block wins: if the response contains multiple fenced blocks, only
// the first is returned and the rest are silently ignored. This is a
// deliberate contract - later blocks are never executed. A response with
// no python fence yields the empty string, which is a signal value, not an
// error; callers must check for it before invoking execution.
func FirstCodeBlock(text string) string {
	match := pythonCodeBlockRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
