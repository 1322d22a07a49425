package gallery

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// notebookDocument models the subset of the .ipynb format needed to read
// display metadata. Everything else in the document is ignored.
type notebookDocument struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string     `json:"cell_type"`
	Source   cellSource `json:"source"`
}

// cellSource tolerates both encodings the format allows: a list of line
// strings or a single string.
type cellSource []string

func (s *cellSource) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		*s = lines
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	return fmt.Errorf("cell source is neither a string nor a string array")
}

func (s cellSource) text() string {
	return strings.Join(s, "")
}

// Title returns the first level-1 markdown heading found in the notebook's
// markdown cells, or "" when the notebook has none. Display is best effort;
// the filename always identifies the notebook.
func Title(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read notebook %s: %w", path, err)
	}

	var doc notebookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("decode notebook %s: %w", path, err)
	}

	for _, cell := range doc.Cells {
		if cell.CellType != "markdown" {
			continue
		}
		if title := headingFromMarkdown([]byte(cell.Source.text())); title != "" {
			return title, nil
		}
	}
	return "", nil
}

func headingFromMarkdown(src []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		heading, ok := n.(*gmast.Heading)
		if !ok || heading.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = headingText(heading, src)
		return gmast.WalkStop, nil
	})
	return strings.TrimSpace(title)
}

func headingText(n gmast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(src))
		case *gmast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(headingText(c, src))
		}
	}
	return sb.String()
}
