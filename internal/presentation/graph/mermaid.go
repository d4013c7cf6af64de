package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/fold/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a split document: the
// main stream as the root, each region hanging off its parent.
// Shapes:
// - Document: ((Circle))
// - Root region: [Rectangle]
// - Nested region: [[Subroutine]]
func GenerateMermaid(url string, s *domain.Summary) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	label := url
	if label == "" {
		label = "document"
	}
	fmt.Fprintf(&sb, "    main((\"%s\"))\n", escapeLabel(label))
	if s == nil {
		return sb.String()
	}

	for _, r := range s.Regions {
		safeID := sanitizeMermaidID(r.ID)
		opener, closer := "[", "]"
		parent := "main"
		if r.ParentID != "" {
			opener, closer = "[[", "]]"
			parent = sanitizeMermaidID(r.ParentID)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %d bytes\"%s\n", safeID, opener, r.ID, r.Bytes, closer)
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", parent, escapeLabel(r.Spec), safeID)
	}

	if s.PassThrough {
		sb.WriteString("\n    classDef passthrough fill:#eeeeee,stroke:#9e9e9e,color:#000;\n")
		sb.WriteString("    class main passthrough;\n")
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
