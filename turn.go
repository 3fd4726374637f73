package parley

import (
	"time"

	"github.com/aretw0/parley/pkg/delivery"
	"github.com/aretw0/parley/pkg/domain"
)

// Entry is one templated message ready for display.
type Entry struct {
	SequenceID string         `json:"sequenceId"`
	Message    domain.Message `json:"message"`
	Delay      time.Duration  `json:"delay"`
}

// Turn is everything the host should show in response to one call.
type Turn struct {
	// ID correlates the turn with lifecycle events.
	ID      string  `json:"id"`
	Entries []Entry `json:"entries"`

	// StopReason explains why the turn ended. SequenceID is the sequence it ended in.
	StopReason domain.StopReason `json:"stopReason"`
	SequenceID string            `json:"sequenceId"`

	// TargetSequenceID is set only when the transition limit stopped the turn.
	TargetSequenceID string `json:"targetSequenceId,omitempty"`
}

// Awaiting returns the interactive message the turn stopped at, if any.
func (t *Turn) Awaiting() (Entry, bool) {
	if t == nil || t.StopReason != domain.StopInteractiveMessage || len(t.Entries) == 0 {
		return Entry{}, false
	}
	last := t.Entries[len(t.Entries)-1]
	if !last.Message.Kind.Interactive() {
		return Entry{}, false
	}
	return last, true
}

// Ended reports whether the conversation reached a dead end.
func (t *Turn) Ended() bool {
	return t != nil && t.StopReason == domain.StopEndOfSequence
}

// Items converts the turn for a delivery queue.
func (t *Turn) Items() []delivery.Item {
	if t == nil {
		return nil
	}
	items := make([]delivery.Item, len(t.Entries))
	for i, entry := range t.Entries {
		items[i] = delivery.Item{
			SequenceID: entry.SequenceID,
			Message:    entry.Message,
			Delay:      entry.Delay,
		}
	}
	return items
}
