package runtime

import (
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// nodeState is the role a message plays when the traverser arrives at it.
type nodeState int

const (
	// stateDisplay collects the message and continues.
	stateDisplay nodeState = iota
	// stateInteractive collects the message and stops for user input.
	stateInteractive
	// stateTransition collects displayable content, if any, and hands off to another sequence.
	stateTransition
	// stateSilent applies side effects without output and continues.
	stateSilent
)

func (s nodeState) String() string {
	switch s {
	case stateDisplay:
		return "display"
	case stateInteractive:
		return "interactive"
	case stateTransition:
		return "transition"
	case stateSilent:
		return "silent"
	}
	return "unknown"
}

// classify maps a message kind to its traversal state. Interactive kinds win over a
// message-level sequenceId, since choices carry their own edges.
func classify(m domain.Message) nodeState {
	switch m.Kind {
	case domain.KindChoice, domain.KindTextInput:
		return stateInteractive
	case domain.KindAutoroute, domain.KindDataAction:
		if m.SequenceID != "" && len(m.Routes) == 0 {
			return stateTransition
		}
		return stateSilent
	case domain.KindText:
		if m.SequenceID != "" && len(m.Routes) == 0 {
			return stateTransition
		}
		return stateDisplay
	}
	// Unknown kinds are rejected at load time; treat anything else as plain text.
	return stateDisplay
}

// edge is where the traversal goes after a message.
type edge struct {
	next       *int
	sequenceID string
}

// expand splits a multi-text message into consecutive bubbles. The first part keeps the
// authored id and delay; the others get ids from nextID and remember where they came from.
func expand(m domain.Message, nextID func() int) []domain.Message {
	if !strings.Contains(m.Text, domain.MultiTextSeparator) {
		return []domain.Message{m}
	}

	var parts []string
	for _, p := range strings.Split(m.Text, domain.MultiTextSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		m.Text = ""
		return []domain.Message{m}
	}

	out := make([]domain.Message, len(parts))
	for i, p := range parts {
		part := m
		part.Text = p
		if i > 0 {
			part.ID = nextID()
			part.ExpandedFrom = m.ID
			part.Delay = nil
		}
		out[i] = part
	}
	return out
}
