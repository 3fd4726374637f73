package sequence

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/condition"
	"github.com/aretw0/parley/pkg/domain"
)

// Warning is a non-fatal authoring problem. Traversal tolerates it (e.g. a dangling edge
// simply ends the sequence).
type Warning struct {
	MessageID int
	Detail    string
}

func (w Warning) String() string {
	return fmt.Sprintf("message %d: %s", w.MessageID, w.Detail)
}

// Validate checks the structural rules a sequence must satisfy to be loaded and returns
// the non-fatal warnings it found. Fatal problems are joined into one error.
func Validate(seq *domain.Sequence) ([]Warning, error) {
	var errs []error
	var warnings []Warning

	if seq.ID == "" {
		errs = append(errs, errors.New("missing sequenceId"))
	}

	ids := make(map[int]bool, len(seq.Messages))
	for _, m := range seq.Messages {
		if ids[m.ID] {
			warnings = append(warnings, Warning{m.ID, "duplicate id, only the first message is reachable"})
		}
		ids[m.ID] = true
	}

	dangling := func(m domain.Message, next *int, what string) {
		if next != nil && !ids[*next] {
			warnings = append(warnings, Warning{m.ID, fmt.Sprintf("%s points to missing message %d", what, *next)})
		}
	}

	for _, m := range seq.Messages {
		if !m.Kind.Valid() {
			errs = append(errs, fmt.Errorf("message %d: unknown type %q", m.ID, m.Kind))
			continue
		}
		if m.Sender != domain.SenderBot && m.Sender != domain.SenderUser {
			errs = append(errs, fmt.Errorf("message %d: unknown sender %q", m.ID, m.Sender))
		}

		if m.Kind == domain.KindChoice {
			if len(m.Choices) == 0 {
				errs = append(errs, fmt.Errorf("message %d: choice message without choices", m.ID))
			}
			for i, c := range m.Choices {
				if c.NextMessageID == nil && c.SequenceID == "" {
					errs = append(errs, fmt.Errorf("message %d: choice %d has neither nextMessageId nor sequenceId", m.ID, i))
				}
				dangling(m, c.NextMessageID, fmt.Sprintf("choice %d", i))
			}
		} else if len(m.Choices) > 0 {
			warnings = append(warnings, Warning{m.ID, fmt.Sprintf("choices are ignored on %s messages", m.Kind)})
		}

		dangling(m, m.NextMessageID, "nextMessageId")

		for i, r := range m.Routes {
			if r.Condition == "" && !r.Default {
				errs = append(errs, fmt.Errorf("message %d: route %d has no condition and is not default", m.ID, i))
			}
			if r.Condition != "" {
				if err := condition.Validate(r.Condition); err != nil {
					warnings = append(warnings, Warning{m.ID, fmt.Sprintf("route %d condition %q never matches: %v", i, r.Condition, err)})
				}
			}
			if r.NextMessageID == nil && r.SequenceID == "" {
				errs = append(errs, fmt.Errorf("message %d: route %d has no target", m.ID, i))
			}
			dangling(m, r.NextMessageID, fmt.Sprintf("route %d", i))
		}

		for i, a := range m.Actions {
			if a.Type == "" {
				errs = append(errs, fmt.Errorf("message %d: action %d has no type", m.ID, i))
			}
		}
	}

	return warnings, errors.Join(errs...)
}
