package dsl

import "github.com/aretw0/parley/pkg/domain"

// MessageBuilder provides a fluent API for configuring a message.
type MessageBuilder struct {
	msg     domain.Message
	builder *Builder
}

// Next sets the message that follows this one.
func (m *MessageBuilder) Next(id int) *MessageBuilder {
	m.msg.NextMessageID = domain.IntPtr(id)
	return m
}

// Goto hands the conversation over to another sequence after this message.
func (m *MessageBuilder) Goto(sequenceID string) *MessageBuilder {
	m.msg.SequenceID = sequenceID
	return m
}

// Delay overrides the typing delay, in milliseconds.
func (m *MessageBuilder) Delay(ms int) *MessageBuilder {
	m.msg.Delay = domain.IntPtr(ms)
	return m
}

// FromUser marks the message as spoken by the user.
func (m *MessageBuilder) FromUser() *MessageBuilder {
	m.msg.Sender = domain.SenderUser
	return m
}

// SaveTo sets the store path the answer is written to.
func (m *MessageBuilder) SaveTo(storeKey string) *MessageBuilder {
	m.msg.StoreKey = storeKey
	return m
}

// Placeholder sets the hint shown in an empty text input.
func (m *MessageBuilder) Placeholder(text string) *MessageBuilder {
	m.msg.Placeholder = text
	return m
}

// Do appends data actions to the message.
func (m *MessageBuilder) Do(actions ...domain.DataAction) *MessageBuilder {
	m.msg.Actions = append(m.msg.Actions, actions...)
	return m
}

// Option adds a choice that continues at message next.
func (m *MessageBuilder) Option(text string, next int) *MessageBuilder {
	m.msg.Choices = append(m.msg.Choices, domain.Choice{Text: text, NextMessageID: domain.IntPtr(next)})
	return m
}

// OptionTo adds a choice that switches to another sequence.
func (m *MessageBuilder) OptionTo(text, sequenceID string) *MessageBuilder {
	m.msg.Choices = append(m.msg.Choices, domain.Choice{Text: text, SequenceID: sequenceID})
	return m
}

// Value sets the stored value of the last added choice.
func (m *MessageBuilder) Value(v any) *MessageBuilder {
	if c := m.lastChoice(); c != nil {
		c.Value = v
	}
	return m
}

// OnSelect attaches data actions to the last added choice.
func (m *MessageBuilder) OnSelect(actions ...domain.DataAction) *MessageBuilder {
	if c := m.lastChoice(); c != nil {
		c.Actions = append(c.Actions, actions...)
	}
	return m
}

// When adds a route taken when condition holds.
func (m *MessageBuilder) When(condition string, next int) *MessageBuilder {
	m.msg.Routes = append(m.msg.Routes, domain.Route{Condition: condition, NextMessageID: domain.IntPtr(next)})
	return m
}

// WhenGoto adds a route to another sequence taken when condition holds.
func (m *MessageBuilder) WhenGoto(condition, sequenceID string) *MessageBuilder {
	m.msg.Routes = append(m.msg.Routes, domain.Route{Condition: condition, SequenceID: sequenceID})
	return m
}

// Otherwise adds the default route.
func (m *MessageBuilder) Otherwise(next int) *MessageBuilder {
	m.msg.Routes = append(m.msg.Routes, domain.Route{Default: true, NextMessageID: domain.IntPtr(next)})
	return m
}

// Done returns to the sequence builder.
func (m *MessageBuilder) Done() *Builder {
	return m.builder
}

// Build returns the underlying domain.Message.
// This is primarily used by the Builder, but exposed for advanced usage.
func (m *MessageBuilder) Build() domain.Message {
	return m.msg
}

func (m *MessageBuilder) lastChoice() *domain.Choice {
	if len(m.msg.Choices) == 0 {
		return nil
	}
	return &m.msg.Choices[len(m.msg.Choices)-1]
}

// Set returns a set action.
func Set(key string, value any) domain.DataAction {
	return domain.DataAction{Type: domain.ActionSet, Key: key, Value: value}
}

// Increment returns an increment action; by defaults to 1 when nil.
func Increment(key string, by any) domain.DataAction {
	return domain.DataAction{Type: domain.ActionIncrement, Key: key, Value: by}
}

// Decrement returns a decrement action; by defaults to 1 when nil.
func Decrement(key string, by any) domain.DataAction {
	return domain.DataAction{Type: domain.ActionDecrement, Key: key, Value: by}
}

// Reset returns a reset action.
func Reset(key string) domain.DataAction {
	return domain.DataAction{Type: domain.ActionReset, Key: key}
}

// Append returns an append action.
func Append(key string, value any) domain.DataAction {
	return domain.DataAction{Type: domain.ActionAppend, Key: key, Value: value}
}

// Remove returns a remove action.
func Remove(key string, value any) domain.DataAction {
	return domain.DataAction{Type: domain.ActionRemove, Key: key, Value: value}
}

// Trigger returns a trigger action for the host.
func Trigger(event string, data map[string]any) domain.DataAction {
	return domain.DataAction{Type: domain.ActionTrigger, Event: event, Data: data}
}
