package classify

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// pngPayload is a tiny valid payload used as stand-in image bytes.
var pngPayload = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		data map[string]string
		want core.ArtifactKind
	}{
		{
			name: "png only",
			data: map[string]string{"image/png": pngPayload},
			want: core.KindImage,
		},
		{
			name: "png beats table",
			data: map[string]string{
				"image/png": pngPayload,
				"text/csv":  "a,b\n1,2\n",
			},
			want: core.KindImage,
		},
		{
			name: "png beats everything",
			data: map[string]string{
				"image/png":                      pngPayload,
				"image/svg+xml":                  "<svg/>",
				"application/vnd.plotly.v1+json": `{"data":[]}`,
				"text/csv":                       "a,b\n1,2\n",
				"text/plain":                     "Figure(640x480)",
			},
			want: core.KindImage,
		},
		{
			name: "svg without png",
			data: map[string]string{
				"image/svg+xml": "<svg/>",
				"text/plain":    "Figure(640x480)",
			},
			want: core.KindFigure,
		},
		{
			name: "plotly without image",
			data: map[string]string{
				"application/vnd.plotly.v1+json": `{"data":[]}`,
				"text/html":                      "<div></div>",
			},
			want: core.KindChart,
		},
		{
			name: "html chart fallback",
			data: map[string]string{"text/html": "<div id='plot'></div>"},
			want: core.KindChart,
		},
		{
			name: "table only",
			data: map[string]string{"text/csv": "a,b\n1,2\n"},
			want: core.KindTable,
		},
		{
			name: "plain text only",
			data: map[string]string{"text/plain": "42"},
			want: core.KindGeneric,
		},
		{
			name: "nothing recognizable",
			data: map[string]string{"application/x-custom": "blob"},
			want: core.KindGeneric,
		},
		{
			name: "empty data map",
			data: map[string]string{},
			want: core.KindGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifacts := Classify([]core.RawResult{{Data: tt.data}})
			if len(artifacts) != 1 {
				t.Fatalf("Classify() returned %d artifacts, want 1", len(artifacts))
			}
			if artifacts[0].Kind != tt.want {
				t.Errorf("Classify() kind = %s, want %s", artifacts[0].Kind, tt.want)
			}
		})
	}
}

func TestClassifyImageDecoding(t *testing.T) {
	artifacts := Classify([]core.RawResult{
		{Data: map[string]string{"image/png": pngPayload}},
	})
	if artifacts[0].Kind != core.KindImage {
		t.Fatalf("kind = %s, want image", artifacts[0].Kind)
	}
	if !bytes.Equal(artifacts[0].Image, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("image bytes not decoded from base64")
	}
}

func TestClassifyInvalidImageFallsThrough(t *testing.T) {
	artifacts := Classify([]core.RawResult{
		{Data: map[string]string{
			"image/png":  "%%% not base64 %%%",
			"text/plain": "fallback",
		}},
	})
	if artifacts[0].Kind != core.KindGeneric {
		t.Errorf("undecodable png classified as %s, want generic", artifacts[0].Kind)
	}
	if artifacts[0].Text != "fallback" {
		t.Errorf("generic text = %q, want fallback", artifacts[0].Text)
	}
}

func TestClassifyTableParsing(t *testing.T) {
	artifacts := Classify([]core.RawResult{
		{Data: map[string]string{"text/csv": "region,revenue\nnorth,100\nsouth,200\n"}},
	})
	if artifacts[0].Kind != core.KindTable {
		t.Fatalf("kind = %s, want table", artifacts[0].Kind)
	}
	table := artifacts[0].Table
	if len(table.Columns) != 2 || table.Columns[0] != "region" {
		t.Errorf("columns = %v", table.Columns)
	}
	if len(table.Rows) != 2 || table.Rows[1][1] != "200" {
		t.Errorf("rows = %v", table.Rows)
	}
}

func TestClassifyEveryResultMapped(t *testing.T) {
	results := []core.RawResult{
		{Data: map[string]string{"image/png": pngPayload}},
		{Data: map[string]string{"text/csv": "a\n1\n"}},
		{Data: map[string]string{"text/plain": "scalar"}},
		{Data: nil},
	}

	artifacts := Classify(results)
	if len(artifacts) != len(results) {
		t.Fatalf("Classify() returned %d artifacts for %d results", len(artifacts), len(results))
	}

	want := []core.ArtifactKind{core.KindImage, core.KindTable, core.KindGeneric, core.KindGeneric}
	for i, k := range want {
		if artifacts[i].Kind != k {
			t.Errorf("artifact %d kind = %s, want %s", i, artifacts[i].Kind, k)
		}
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
	if got := Classify([]core.RawResult{}); got != nil {
		t.Errorf("Classify(empty) = %v, want nil", got)
	}
}
