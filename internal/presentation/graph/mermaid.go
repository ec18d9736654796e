package graph

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateMermaid produces a Mermaid flowchart syntax string from a
// serialized document. It applies semantic styling:
// - Root: ((Circle))
// - Branch: [Rectangle]
// - Array: [[Subroutine]]
// - Leaf: [/Parallelogram/] with "key: value"
func GenerateMermaid(id string, data map[string]any) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	rootID := sanitizeMermaidID(id)
	if rootID == "" {
		rootID = "document"
	}
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", rootID, id))

	writeBranch(&sb, rootID, "", data)

	sb.WriteString("\n    classDef branch fill:#e1f5fe,stroke:#01579b,color:#000;\n")
	sb.WriteString("    classDef leaf fill:#f1f8e9,stroke:#33691e,color:#000;\n")

	return sb.String()
}

func writeBranch(sb *strings.Builder, parentID, prefix string, data map[string]any) {
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
		nodeID := sanitizeMermaidID("n_" + path)

		switch v := data[k].(type) {
		case map[string]any:
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]:::branch\n", nodeID, k))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, nodeID))
			writeBranch(sb, nodeID, path, v)

		case []any:
			sb.WriteString(fmt.Sprintf("    %s[[\"%s (%d)\"]]:::branch\n", nodeID, k, len(v)))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, nodeID))
			for i, el := range v {
				elemID := fmt.Sprintf("%s_%d", nodeID, i)
				if m, ok := el.(map[string]any); ok {
					sb.WriteString(fmt.Sprintf("    %s[\"%s.%d\"]:::branch\n", elemID, k, i))
					sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID, elemID))
					writeBranch(sb, elemID, fmt.Sprintf("%s.%d", path, i), m)
					continue
				}
				sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]:::leaf\n", elemID, escapeLabel(el)))
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID, elemID))
			}

		default:
			label := fmt.Sprintf("%s: %s", k, escapeLabel(v))
			sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]:::leaf\n", nodeID, label))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, nodeID))
		}
	}
}

func escapeLabel(v any) string {
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
