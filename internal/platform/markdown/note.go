// Package markdown reads and writes notes made of a YAML frontmatter header
// and a free-form body.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

type Note struct {
	Meta map[string]any
	Body string
}

// Parse splits content into frontmatter and body. Content without a leading
// fence is all body. CRLF line endings are normalized.
func Parse(content string) (Note, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence+"\n") {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := content[len(fence)+1:]

	var raw, body string
	switch {
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	default:
		idx := strings.Index(rest, "\n"+fence+"\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n"+fence) {
				return Note{}, fmt.Errorf("invalid frontmatter: missing closing fence")
			}
			idx = len(rest) - len(fence) - 1
			raw = rest[:idx]
			break
		}
		raw = rest[:idx]
		body = rest[idx+len(fence)+2:]
	}

	meta := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
			return Note{}, fmt.Errorf("unmarshal frontmatter: %w", err)
		}
	}
	return Note{Meta: meta, Body: body}, nil
}

// Render writes the note back with keys in sorted order, separated from the
// body by one blank line.
func (n Note) Render() (string, error) {
	meta := n.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(raw)
	buf.WriteString(fence + "\n")
	if !strings.HasPrefix(n.Body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(n.Body)
	return buf.String(), nil
}
