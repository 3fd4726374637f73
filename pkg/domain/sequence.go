package domain

// Sequence is a named conversational script.
type Sequence struct {
	ID          string    `json:"sequenceId" yaml:"sequenceId" mapstructure:"sequenceId"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Messages    []Message `json:"messages" yaml:"messages" mapstructure:"messages"`

	index map[int]int
}

// BuildIndex (re)builds the id lookup table. Later duplicates never override the first entry.
func (s *Sequence) BuildIndex() {
	s.index = make(map[int]int, len(s.Messages))
	for i, m := range s.Messages {
		if _, exists := s.index[m.ID]; !exists {
			s.index[m.ID] = i
		}
	}
}

// HasMessage reports whether a message with the given id exists.
func (s *Sequence) HasMessage(id int) bool {
	_, ok := s.position(id)
	return ok
}

// MessageByID returns the message with the given id.
func (s *Sequence) MessageByID(id int) (Message, bool) {
	i, ok := s.position(id)
	if !ok {
		return Message{}, false
	}
	return s.Messages[i], true
}

// position falls back to a linear scan for sequences built by hand without BuildIndex.
func (s *Sequence) position(id int) (int, bool) {
	if s.index != nil {
		i, ok := s.index[id]
		return i, ok
	}
	for i, m := range s.Messages {
		if m.ID == id {
			return i, true
		}
	}
	return 0, false
}

// FirstID returns the id of the first authored message, which is where a sequence starts.
func (s *Sequence) FirstID() (int, bool) {
	if len(s.Messages) == 0 {
		return 0, false
	}
	return s.Messages[0].ID, true
}
