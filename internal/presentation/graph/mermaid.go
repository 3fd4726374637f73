package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	Visited []int
	Current *int
}

// GenerateMermaid produces a Mermaid flowchart of a sequence.
// It applies semantic styling:
// - First message: ((Circle))
// - Choice / text input: [/Parallelogram/]
// - Autoroute: {Rhombus}
// - Data action: [[Subroutine]]
// - Text: [Rectangle]
// Hand-offs to other sequences are drawn as dotted edges to a stadium node.
func GenerateMermaid(seq *domain.Sequence, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	first, hasFirst := seq.FirstID()
	external := make(map[string]bool)

	for _, msg := range seq.Messages {
		id := nodeID(msg.ID)

		opener, closer := "[", "]"
		switch {
		case hasFirst && msg.ID == first:
			opener, closer = "((", "))"
		case msg.Kind.Interactive():
			opener, closer = "[/", "/]"
		case msg.Kind == domain.KindAutoroute:
			opener, closer = "{", "}"
		case msg.Kind == domain.KindDataAction:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label(msg), closer)

		edge := func(text string, next *int, sequenceID string) {
			switch {
			case sequenceID != "":
				target := sequenceNodeID(sequenceID)
				external[sequenceID] = true
				if text != "" {
					fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", id, escape(text), target)
				} else {
					fmt.Fprintf(&sb, "    %s -.-> %s\n", id, target)
				}
			case next != nil:
				if text != "" {
					fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, escape(text), nodeID(*next))
				} else {
					fmt.Fprintf(&sb, "    %s --> %s\n", id, nodeID(*next))
				}
			}
		}

		for _, r := range msg.Routes {
			cond := r.Condition
			if r.Default && cond == "" {
				cond = "default"
			}
			edge(cond, r.NextMessageID, r.SequenceID)
		}
		if msg.Kind == domain.KindChoice {
			for _, c := range msg.Choices {
				edge(c.Text, c.NextMessageID, c.SequenceID)
			}
		} else if len(msg.Routes) == 0 {
			edge("", msg.NextMessageID, msg.SequenceID)
		}
	}

	targets := make([]string, 0, len(external))
	for sequenceID := range external {
		targets = append(targets, sequenceID)
	}
	sort.Strings(targets)
	for _, sequenceID := range targets {
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", sequenceNodeID(sequenceID), escape(sequenceID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, v := range overlay.Visited {
			if !seen[v] && seq.HasMessage(v) {
				seen[v] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(v))
			}
		}
		if overlay.Current != nil {
			fmt.Fprintf(&sb, "    class %s current;\n", nodeID(*overlay.Current))
		}
	}

	return sb.String()
}

func label(msg domain.Message) string {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return fmt.Sprintf("%d: %s", msg.ID, msg.Kind)
	}
	if r := []rune(text); len(r) > 32 {
		text = string(r[:29]) + "..."
	}
	return fmt.Sprintf("%d: %s", msg.ID, escape(text))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func nodeID(id int) string {
	if id < 0 {
		return fmt.Sprintf("m_%d", -id)
	}
	return fmt.Sprintf("m%d", id)
}

func sequenceNodeID(sequenceID string) string {
	return "seq_" + sanitizeMermaidID(sequenceID)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
