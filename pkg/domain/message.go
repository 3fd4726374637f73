package domain

// MessageKind is the closed set of node kinds a sequence may contain.
type MessageKind string

const (
	// KindText displays content and continues immediately.
	KindText MessageKind = "text"
	// KindChoice displays content and halts until the user picks one of its choices.
	KindChoice MessageKind = "choice"
	// KindTextInput displays content and halts until the user submits free text.
	KindTextInput MessageKind = "textInput"
	// KindAutoroute is silent: it only resolves its outgoing edge (routes or next id).
	KindAutoroute MessageKind = "autoroute"
	// KindDataAction is silent: it applies its actions and moves on.
	KindDataAction MessageKind = "dataAction"
)

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindChoice, KindTextInput, KindAutoroute, KindDataAction:
		return true
	}
	return false
}

// Interactive reports whether the kind needs user input before the flow can continue.
func (k MessageKind) Interactive() bool {
	return k == KindChoice || k == KindTextInput
}

// Silent reports whether the kind is never shown to the user.
func (k MessageKind) Silent() bool {
	return k == KindAutoroute || k == KindDataAction
}

// Sender identifies who authored a message in the transcript.
type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// MultiTextSeparator splits one authored text into several consecutive bubbles.
const MultiTextSeparator = "|||"

// Message is a single node of a Sequence.
// Exactly one of NextMessageID, SequenceID, Choices (or Routes) determines the outward edges.
type Message struct {
	ID     int         `json:"id" yaml:"id" mapstructure:"id"`
	Kind   MessageKind `json:"type" yaml:"type" mapstructure:"type"`
	Text   string      `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Sender Sender      `json:"sender,omitempty" yaml:"sender,omitempty" mapstructure:"sender"`

	// Delay is an explicit pause in milliseconds before the message is shown.
	Delay *int `json:"delay,omitempty" yaml:"delay,omitempty" mapstructure:"delay"`

	NextMessageID *int   `json:"nextMessageId,omitempty" yaml:"nextMessageId,omitempty" mapstructure:"nextMessageId"`
	SequenceID    string `json:"sequenceId,omitempty" yaml:"sequenceId,omitempty" mapstructure:"sequenceId"`

	Choices     []Choice `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`
	StoreKey    string   `json:"storeKey,omitempty" yaml:"storeKey,omitempty" mapstructure:"storeKey"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty" mapstructure:"placeholder"`

	Actions []DataAction `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions"`
	Routes  []Route      `json:"routes,omitempty" yaml:"routes,omitempty" mapstructure:"routes"`

	// ExpandedFrom is set on the extra parts of a multi-text message and holds the authored id.
	ExpandedFrom int `json:"expandedFrom,omitempty" yaml:"-" mapstructure:"-"`
}

// IsUser reports whether the message is rendered as the user's own bubble.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Choice is one selectable answer of a choice message.
type Choice struct {
	Text          string       `json:"text" yaml:"text" mapstructure:"text"`
	NextMessageID *int         `json:"nextMessageId,omitempty" yaml:"nextMessageId,omitempty" mapstructure:"nextMessageId"`
	SequenceID    string       `json:"sequenceId,omitempty" yaml:"sequenceId,omitempty" mapstructure:"sequenceId"`
	StoreKey      string       `json:"storeKey,omitempty" yaml:"storeKey,omitempty" mapstructure:"storeKey"`
	Value         any          `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Actions       []DataAction `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions"`
}

// StoredValue is what gets written to the store when the choice is picked.
func (c Choice) StoredValue() any {
	if c.Value != nil {
		return c.Value
	}
	return c.Text
}

// Route is a condition-gated edge. Routes are tried in order; the first one whose
// Condition holds wins, then the Default route, if any.
type Route struct {
	Condition     string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
	NextMessageID *int   `json:"nextMessageId,omitempty" yaml:"nextMessageId,omitempty" mapstructure:"nextMessageId"`
	SequenceID    string `json:"sequenceId,omitempty" yaml:"sequenceId,omitempty" mapstructure:"sequenceId"`
	Default       bool   `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}

// IntPtr is a small helper for building messages in code and tests.
func IntPtr(v int) *int {
	return &v
}
