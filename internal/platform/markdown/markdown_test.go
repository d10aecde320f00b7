package markdown

import (
	"strings"
	"testing"
)

func TestParseAndRender(t *testing.T) {
	t.Parallel()
	note, err := Parse("---\r\ntitle: Log\r\ncoins: 5\r\n---\r\n\r\n# Log\r\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if note.Meta["title"] != "Log" || note.Meta["coins"] != 5 {
		t.Fatalf("unexpected meta: %#v", note.Meta)
	}
	if note.Body != "\n# Log\n" {
		t.Fatalf("unexpected body: %q", note.Body)
	}

	rendered, err := note.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if rendered != "---\ncoins: 5\ntitle: Log\n---\n\n# Log\n" {
		t.Fatalf("unexpected render: %q", rendered)
	}
}

func TestParseEdgeCases(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		content string
		body    string
		keys    int
		wantErr bool
	}{
		{name: "no frontmatter", content: "# Title\n", body: "# Title\n"},
		{name: "empty frontmatter", content: "---\n---\nbody", body: "body"},
		{name: "frontmatter only", content: "---\na: 1\n---", keys: 1},
		{name: "unterminated", content: "---\na: 1\n", wantErr: true},
		{name: "bad yaml", content: "---\n: [\n---\n", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			note, err := Parse(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if note.Body != tc.body || len(note.Meta) != tc.keys {
				t.Fatalf("got body %q meta %#v", note.Body, note.Meta)
			}
		})
	}
}

func TestBlockReplace(t *testing.T) {
	t.Parallel()
	block := Block{Name: "history"}

	body := block.Replace("# Log\n\nNotes.", "row 1")
	if !strings.HasPrefix(body, "# Log\n\nNotes.\n\n<!-- pomo:history:start -->\nrow 1\n") {
		t.Fatalf("unexpected append: %q", body)
	}

	body = block.Replace(body+"\nAfter.\n", "row 2")
	if strings.Count(body, "<!-- pomo:history:start -->") != 1 {
		t.Fatalf("block duplicated: %q", body)
	}
	if !strings.HasSuffix(body, "\nAfter.\n") {
		t.Fatalf("text after block lost: %q", body)
	}
	got, ok := block.Contents(body)
	if !ok || got != "row 2" {
		t.Fatalf("contents = %q, %v", got, ok)
	}

	if _, ok := (Block{Name: "other"}).Contents(body); ok {
		t.Fatalf("unexpected block match")
	}
	if got := block.Replace("", "x"); got != "<!-- pomo:history:start -->\nx\n<!-- pomo:history:end -->\n" {
		t.Fatalf("empty body: %q", got)
	}
}
