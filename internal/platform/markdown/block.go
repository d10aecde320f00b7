package markdown

import "strings"

// Block is a generated region of a note delimited by HTML comments, so the
// rest of the note can be edited by hand.
type Block struct {
	Name string
}

func (b Block) start() string { return "<!-- pomo:" + b.Name + ":start -->" }
func (b Block) end() string   { return "<!-- pomo:" + b.Name + ":end -->" }

// Replace swaps the block's contents for generated, appending the block when
// body does not contain it yet.
func (b Block) Replace(body, generated string) string {
	start, end := b.start(), b.end()
	block := start + "\n" + generated + "\n" + end

	if from, to, ok := b.bounds(body); ok {
		return body[:from] + block + body[to:]
	}
	switch {
	case strings.TrimSpace(body) == "":
		return block + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + block + "\n"
	default:
		return body + "\n\n" + block + "\n"
	}
}

// Contents returns what sits between the markers.
func (b Block) Contents(body string) (string, bool) {
	from, to, ok := b.bounds(body)
	if !ok {
		return "", false
	}
	inner := body[from+len(b.start()) : to-len(b.end())]
	return strings.Trim(inner, "\n"), true
}

func (b Block) bounds(body string) (from, to int, ok bool) {
	from = strings.Index(body, b.start())
	if from < 0 {
		return 0, 0, false
	}
	rel := strings.Index(body[from:], b.end())
	if rel < 0 {
		return 0, 0, false
	}
	return from, from + rel + len(b.end()), true
}
