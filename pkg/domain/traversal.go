package domain

// StopReason explains why a traversal returned.
type StopReason string

const (
	StopEndOfSequence      StopReason = "endOfSequence"
	StopInteractiveMessage StopReason = "interactiveMessage"
	StopSequenceTransition StopReason = "sequenceTransition"
)

// TraversalResult is produced fresh by every traversal and never mutated afterwards.
type TraversalResult struct {
	Messages         []Message  `json:"messages"`
	StopReason       StopReason `json:"stopReason"`
	TargetSequenceID string     `json:"targetSequenceId,omitempty"`
}

// Last returns the final emitted message, if any.
func (r *TraversalResult) Last() (Message, bool) {
	if r == nil || len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
