package domain

// ActionType is the instruction set understood by the data action processor.
type ActionType string

const (
	ActionSet       ActionType = "set"
	ActionIncrement ActionType = "increment"
	ActionDecrement ActionType = "decrement"
	ActionReset     ActionType = "reset"
	ActionAppend    ActionType = "append"
	ActionRemove    ActionType = "remove"
	// ActionTrigger does not touch the store; it hands an event to the host
	// (e.g. "refresh_notifications").
	ActionTrigger ActionType = "trigger"
)

// DataAction is a deferred side effect attached to a message or a choice.
type DataAction struct {
	Type  ActionType `json:"type" yaml:"type" mapstructure:"type"`
	Key   string     `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	Value any        `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// Event and Data are only used by trigger actions.
	Event string         `json:"event,omitempty" yaml:"event,omitempty" mapstructure:"event"`
	Data  map[string]any `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
}

// TriggerEvent is emitted to the host for every trigger action.
type TriggerEvent struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}
