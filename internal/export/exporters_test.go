package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gurubase/gurubase-cli/internal"
)

func sampleGurus() []internal.GuruType {
	return []internal.GuruType{
		{Slug: "kubernetes", Name: "Kubernetes", IconURL: "https://example.com/k8s.png"},
		{Slug: "golang", Name: "Go | Lang"},
	}
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(sampleGurus(), &buf))

	var got []internal.GuruType
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleGurus(), got)
	assert.Contains(t, buf.String(), "\n  ", "output should be indented")
}

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		wantLines int
	}{
		{name: "slice yields one line per item", value: sampleGurus(), wantLines: 2},
		{name: "object yields one line", value: internal.Object{"ready": true}, wantLines: 1},
		{name: "pointer to slice is unwrapped", value: &[]string{"a", "b", "c"}, wantLines: 3},
		{name: "empty slice yields nothing", value: []string{}, wantLines: 0},
		{name: "nil yields null", value: nil, wantLines: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&JSONLExporter{}).Export(tt.value, &buf))

			out := strings.TrimRight(buf.String(), "\n")
			lines := 0
			if out != "" {
				lines = len(strings.Split(out, "\n"))
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	value := internal.Object{"status": 202, "encoded_guru_slug": "abc"}
	require.NoError(t, (&YAMLExporter{}).Export(value, &buf))

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "abc", got["encoded_guru_slug"])
	assert.Equal(t, 202, got["status"])
}

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  []string
	}{
		{
			name:  "guru table escapes pipes",
			value: sampleGurus(),
			want:  []string{"| Name | Slug |", "| Kubernetes | kubernetes |", "| Go \\| Lang | golang |"},
		},
		{
			name: "question with references",
			value: &internal.QuestionDetail{
				Question:   "How do I create a pod?",
				Content:    "Use `kubectl run`.",
				TrustScore: 87,
				References: []internal.Reference{{Title: "Pods", Link: "https://k8s.io/pods"}},
			},
			want: []string{"# How do I create a pod?", "**Trust score:** 87%", "Use `kubectl run`.", "## References", "- [Pods](https://k8s.io/pods)"},
		},
		{
			name:  "summary",
			value: &internal.Summary{Question: "What is a goroutine?", QuestionSlug: "what-is-a-goroutine", ValidQuestion: true},
			want:  []string{"# What is a goroutine?", "**Slug:** what-is-a-goroutine", "**Valid question:** true"},
		},
		{
			name:  "object sorted by key",
			value: internal.Object{"b": "two", "a": 1.0},
			want:  []string{"| Key | Value |", "| a | 1 |\n| b | two |"},
		},
		{
			name:  "string list",
			value: []string{"first", "second"},
			want:  []string{"- first\n- second"},
		},
		{
			name:  "action error",
			value: &internal.ActionError{Error: true, Message: "boom"},
			want:  []string{"> **Error:** boom"},
		},
		{
			name:  "unknown type falls back to json",
			value: internal.Ack{Success: true},
			want:  []string{"```json", `"success": true`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&MarkdownExporter{}).Export(tt.value, &buf))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	in := "**bold** and __under__\n```\n**kept**\n```"
	got := escapeMarkdown(in)
	assert.Contains(t, got, "\\*\\*bold\\*\\*")
	assert.Contains(t, got, "\\_\\_under\\_\\_")
	assert.Contains(t, got, "\n**kept**\n")
}
