package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// It auto-detects the terminal background for light/dark styling.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// DocumentMarkdown builds a markdown summary of a serialized document for
// terminal inspection: a header, the value table, and the history trail.
func DocumentMarkdown(id string, data map[string]any, actions []string, cursor int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Document `%s`\n\n", id)

	if len(data) == 0 {
		b.WriteString("*(empty)*\n")
	} else {
		b.WriteString("| Path | Value |\n|------|-------|\n")
		writeRows(&b, "", data)
	}

	b.WriteString("\n## History\n\n")
	if len(actions) == 0 {
		b.WriteString("*(no recorded actions)*\n")
	} else {
		for i, name := range actions {
			marker := " "
			if i == cursor {
				marker = "→"
			}
			fmt.Fprintf(&b, "%s %d. %s\n", marker, i+1, name)
		}
	}

	return b.String()
}

func writeRows(b *strings.Builder, prefix string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := data[k].(map[string]any); ok {
			writeRows(b, path, nested)
			continue
		}
		fmt.Fprintf(b, "| `%s` | %v |\n", path, data[k])
	}
}
