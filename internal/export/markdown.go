package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gurubase/gurubase-cli/internal"
)

// MarkdownExporter renders results as Markdown. Answers and guru listings get
// a dedicated layout; anything else becomes a key/value table or a list.
type MarkdownExporter struct{}

// Export writes v as Markdown.
func (e *MarkdownExporter) Export(v interface{}, w io.Writer) error {
	switch t := v.(type) {
	case *internal.QuestionDetail:
		return writeQuestion(w, t)
	case *internal.Summary:
		return writeSummary(w, t)
	case []internal.GuruType:
		return writeGurus(w, t)
	case []internal.DefaultQuestion:
		for _, q := range t {
			_, _ = fmt.Fprintf(w, "- **%s** (`%s`)\n", q.Question, q.Slug)
			if q.Description != "" {
				_, _ = fmt.Fprintf(w, "  %s\n", q.Description)
			}
		}
		return nil
	case *internal.ActionError:
		_, err := fmt.Fprintf(w, "> **Error:** %s\n", t.Message)
		return err
	case map[string]interface{}:
		return writeObject(w, t)
	case []map[string]interface{}:
		for i, obj := range t {
			if i > 0 {
				_, _ = fmt.Fprintf(w, "\n---\n\n")
			}
			if err := writeObject(w, obj); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		for _, item := range t {
			_, _ = fmt.Fprintf(w, "- %s\n", cell(item))
		}
		return nil
	case []string:
		for _, s := range t {
			_, _ = fmt.Fprintf(w, "- %s\n", s)
		}
		return nil
	case string:
		_, err := fmt.Fprintln(w, t)
		return err
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "```json\n%s\n```\n", data)
		return err
	}
}

func writeQuestion(w io.Writer, q *internal.QuestionDetail) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", q.Question)
	if q.TrustScore > 0 {
		_, _ = fmt.Fprintf(w, "**Trust score:** %d%%  \n", q.TrustScore)
	}
	if q.DateUpdated != "" {
		_, _ = fmt.Fprintf(w, "**Updated:** %s\n\n", q.DateUpdated)
	}
	body := strings.TrimSpace(q.Content)
	if body == "" {
		body = q.Msg
	}
	_, _ = fmt.Fprintf(w, "%s\n", body)

	if len(q.References) > 0 {
		_, _ = fmt.Fprintf(w, "\n## References\n\n")
		for _, r := range q.References {
			_, _ = fmt.Fprintf(w, "- [%s](%s)\n", escapeMarkdown(r.Title), r.Link)
		}
	}
	return nil
}

func writeSummary(w io.Writer, s *internal.Summary) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", s.Question)
	_, _ = fmt.Fprintf(w, "**Slug:** %s  \n", s.QuestionSlug)
	_, _ = fmt.Fprintf(w, "**Valid question:** %t\n\n", s.ValidQuestion)
	if s.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n", escapeMarkdown(s.Description))
	}
	return nil
}

func writeGurus(w io.Writer, gurus []internal.GuruType) error {
	_, _ = fmt.Fprintf(w, "| Name | Slug |\n|---|---|\n")
	for _, g := range gurus {
		_, _ = fmt.Fprintf(w, "| %s | %s |\n", escapeCell(g.Name), escapeCell(g.Slug))
	}
	return nil
}

func writeObject(w io.Writer, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, _ = fmt.Fprintf(w, "| Key | Value |\n|---|---|\n")
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "| %s | %s |\n", escapeCell(k), escapeCell(cell(obj[k])))
	}
	return nil
}

func cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool, int:
		return fmt.Sprint(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
