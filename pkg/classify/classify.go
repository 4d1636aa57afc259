// Package classify maps raw sandbox results to render-ready artifacts.
//
// A sandbox result can carry several representations of the same value at
// once, for example a matplotlib figure serialized both as PNG and as
// plain text. Classification resolves that ambiguity with a fixed priority
// order so rendering is deterministic: image payload, then static figure,
// then interactive chart, then tabular data, then the generic textual form.
package classify

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// MIME types recognized by the classifier, in priority order.
const (
	mimePNG    = "image/png"
	mimeSVG    = "image/svg+xml"
	mimePlotly = "application/vnd.plotly.v1+json"
	mimeHTML   = "text/html"
	mimeCSV    = "text/csv"
	mimeText   = "text/plain"
)

// Classify maps each raw result to exactly one artifact. No result is ever
// dropped: every entry in the input yields one artifact, falling back to
// core.KindGeneric. An empty input yields an empty output.
func Classify(results []core.RawResult) []core.Artifact {
	if len(results) == 0 {
		return nil
	}
	artifacts := make([]core.Artifact, len(results))
	for i, r := range results {
		artifacts[i] = classifyOne(r)
	}
	return artifacts
}

// classifyOne resolves one result. First capability match wins; the order
// must be preserved exactly so that a result satisfying several
// capabilities (e.g. both PNG and CSV) has one unambiguous outcome.
func classifyOne(r core.RawResult) core.Artifact {
	if payload, ok := r.Data[mimePNG]; ok && payload != "" {
		img, err := base64.StdEncoding.DecodeString(payload)
		if err == nil {
			return core.Artifact{Kind: core.KindImage, Image: img}
		}
		// Undecodable image payload falls through to the next capability.
	}

	if svg, ok := r.Data[mimeSVG]; ok && svg != "" {
		return core.Artifact{Kind: core.KindFigure, SVG: svg}
	}

	if spec, ok := r.Data[mimePlotly]; ok && spec != "" {
		return core.Artifact{Kind: core.KindChart, Chart: spec}
	}
	if html, ok := r.Data[mimeHTML]; ok && html != "" {
		return core.Artifact{Kind: core.KindChart, Chart: html}
	}

	if raw, ok := r.Data[mimeCSV]; ok && raw != "" {
		if table, err := parseTable(raw); err == nil {
			return core.Artifact{Kind: core.KindTable, Table: table}
		}
	}

	return core.Artifact{Kind: core.KindGeneric, Text: genericText(r)}
}

// parseTable parses CSV data into a table with the first record as header.
func parseTable(raw string) (*core.Table, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse table: empty data")
	}
	return &core.Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// genericText picks the textual form of a result that matched no other
// capability.
func genericText(r core.RawResult) string {
	if text := r.Data[mimeText]; text != "" {
		return text
	}
	// No plain-text payload either; fall back to the raw map.
	return fmt.Sprintf("%v", r.Data)
}
