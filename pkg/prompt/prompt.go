// Package prompt composes the instruction set sent to the model for one
// analysis request.
package prompt

import (
	"fmt"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// SystemPromptTemplate is the default system prompt. It takes the dataset
// path twice so generated code always opens the materialized file.
const SystemPromptTemplate = `You are a Python data scientist and data visualization expert. You are given a dataset located at the path '%s' and a query from the user.
You need to analyze the dataset, answer the query, and solve the problem by running Python code.
IMPORTANT: when reading the Excel file in your code, always use the dataset path '%s'.
For data visualization, use common libraries such as matplotlib or plotly, which are generally available.
Do not use pyecharts, seaborn, or other less common visualization libraries.
Critical requirements:
1. You MUST produce one and only one Python code block in your reply.
2. Do not produce multiple code blocks - combine all necessary steps into a single block.
3. Make sure your code is complete and can run on its own.`

// Build returns the two-message conversation for an analysis request: a
// system message carrying the dataset path, the allowed plotting libraries
// and the single-code-block constraint, and a user message carrying the
// verbatim query. Pure function of its inputs.
func Build(datasetPath, query string) []core.Message {
	return []core.Message{
		{Role: "system", Content: fmt.Sprintf(SystemPromptTemplate, datasetPath, datasetPath)},
		{Role: "user", Content: query},
	}
}

// BuildWithSystem is Build with a caller-supplied system prompt. The
// prompt is used verbatim; callers embedding a dataset path are
// responsible for keeping it consistent with the materialized file.
func BuildWithSystem(system, query string) []core.Message {
	return []core.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: query},
	}
}
