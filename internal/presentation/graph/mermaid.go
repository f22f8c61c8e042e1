package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Overlay highlights nodes on top of the rendered graph.
type Overlay struct {
	Selected   []string
	Unanswered []string
}

// GenerateMermaid produces a Mermaid flowchart for a questionnaire.
// Shapes follow the node role:
// - Section: [[Subroutine]]
// - Question: [/Parallelogram/]
// - Editing question: [Rectangle] with the draft class
// Edges carry the branch label.
func GenerateMermaid(q *domain.Questionnaire, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if q == nil {
		return sb.String()
	}

	var drafts []string
	for _, node := range q.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeSection:
			opener, closer = "[[", "]]"
		case domain.NodeTypeQuestion:
			opener, closer = "[/", "/]"
		case domain.NodeTypeEditingQuestion:
			drafts = append(drafts, safeID)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, nodeLabel(node), closer)
	}

	for _, e := range q.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		if e.Label == "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escape(e.Label), to)
	}

	if len(drafts) > 0 {
		sb.WriteString("\n    classDef draft stroke-dasharray: 5 5,color:#666;\n")
		for _, id := range drafts {
			fmt.Fprintf(&sb, "    class %s draft;\n", id)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef unanswered fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		writeClass(&sb, overlay.Unanswered, "unanswered")
		writeClass(&sb, overlay.Selected, "selected")
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func nodeLabel(n domain.Node) string {
	switch d := n.Data.(type) {
	case domain.QuestionData:
		text := d.Question
		if text == "" {
			text = "(untitled question)"
		}
		if d.IsRequired {
			text += " *"
		}
		return escape(text) + "<br/><i>" + string(d.QuestionType) + "</i>"
	case domain.SectionData:
		name := d.SectionName
		if name == "" {
			name = "(untitled section)"
		}
		return fmt.Sprintf("%s <br/> weight %d", escape(name), d.Weight)
	}
	return escape(n.ID)
}

// escape replaces characters that break a quoted Mermaid label.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	s := r.Replace(id)
	// Mermaid treats bare numbers poorly as node ids.
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}
