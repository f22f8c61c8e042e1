package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Summary describes a questionnaire as markdown: one heading per section,
// one entry per question with its options and outgoing branches.
func Summary(q *domain.Questionnaire, meta *domain.TemplateMetadata) string {
	var sb strings.Builder

	title := "Untitled questionnaire"
	switch {
	case meta != nil && meta.Name != "":
		title = meta.Name
	case q != nil && q.TemplateName != "":
		title = q.TemplateName
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if meta != nil {
		if len(meta.Facilities) > 0 {
			fmt.Fprintf(&sb, "**Facilities:** %s\n\n", strings.Join(meta.Facilities, ", "))
		}
		if len(meta.Services) > 0 {
			fmt.Fprintf(&sb, "**Services:** %s\n\n", strings.Join(meta.Services, ", "))
		}
	}

	if q == nil || len(q.Nodes) == 0 {
		sb.WriteString("_No nodes yet._\n")
		return sb.String()
	}

	var questions, sections int
	for _, n := range q.Nodes {
		switch n.Type {
		case domain.NodeTypeSection:
			sections++
		case domain.NodeTypeQuestion:
			questions++
		}
	}
	fmt.Fprintf(&sb, "%d questions, %d sections, %d branches\n\n", questions, sections, len(q.Edges))

	for _, n := range q.Nodes {
		switch d := n.Data.(type) {
		case domain.SectionData:
			fmt.Fprintf(&sb, "## %s (weight %d)\n\n", orDash(d.SectionName), d.Weight)
		case domain.QuestionData:
			marker := ""
			if d.IsRequired {
				marker = " *(required)*"
			}
			if n.Type == domain.NodeTypeEditingQuestion {
				marker += " *(unsaved)*"
			}
			fmt.Fprintf(&sb, "- **%s** `%s` `%s`%s\n", orDash(d.Question), n.ID, d.QuestionType, marker)
			for _, o := range d.Options {
				fmt.Fprintf(&sb, "  - %s\n", orDash(o))
			}
		}
		for _, e := range q.OutgoingEdges(n.ID) {
			target := e.Target
			if t, ok := q.FindNode(e.Target); ok {
				target = describe(t)
			}
			label := e.Label
			if label == "" {
				label = domain.LabelDefault
			}
			fmt.Fprintf(&sb, "  - _%s_ → %s\n", label, target)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func describe(n domain.Node) string {
	switch d := n.Data.(type) {
	case domain.SectionData:
		return "section " + orDash(d.SectionName)
	case domain.QuestionData:
		return "question " + orDash(d.Question)
	}
	return n.ID
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(blank)"
	}
	return s
}
