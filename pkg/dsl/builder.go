package dsl

import (
	"fmt"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/sequence"
)

// Builder manages the construction of one sequence.
type Builder struct {
	seq      domain.Sequence
	messages []*MessageBuilder
	byID     map[int]*MessageBuilder
}

// New creates a new sequence builder.
func New(sequenceID string) *Builder {
	return &Builder{
		seq:  domain.Sequence{ID: sequenceID},
		byID: make(map[int]*MessageBuilder),
	}
}

// Name sets the human readable name of the sequence.
func (b *Builder) Name(name string) *Builder {
	b.seq.Name = name
	return b
}

// Describe sets the sequence description.
func (b *Builder) Describe(description string) *Builder {
	b.seq.Description = description
	return b
}

// Text adds a bot text message.
func (b *Builder) Text(id int, text string) *MessageBuilder {
	return b.add(id, domain.KindText, text)
}

// Choice adds a choice message. Add options with Option or OptionTo.
func (b *Builder) Choice(id int, text string) *MessageBuilder {
	return b.add(id, domain.KindChoice, text)
}

// Input adds a free text question whose answer is stored at storeKey.
func (b *Builder) Input(id int, text, storeKey string) *MessageBuilder {
	return b.add(id, domain.KindTextInput, text).SaveTo(storeKey)
}

// Autoroute adds a silent routing message. Add routes with When and Otherwise.
func (b *Builder) Autoroute(id int) *MessageBuilder {
	return b.add(id, domain.KindAutoroute, "")
}

// Action adds a silent message that applies the given data actions.
func (b *Builder) Action(id int, actions ...domain.DataAction) *MessageBuilder {
	return b.add(id, domain.KindDataAction, "").Do(actions...)
}

// add creates a message in authoring order. If the id already exists, it returns the
// existing builder.
func (b *Builder) add(id int, kind domain.MessageKind, text string) *MessageBuilder {
	if mb, ok := b.byID[id]; ok {
		return mb
	}
	mb := &MessageBuilder{
		msg: domain.Message{
			ID:     id,
			Kind:   kind,
			Text:   text,
			Sender: domain.SenderBot,
		},
		builder: b,
	}
	b.messages = append(b.messages, mb)
	b.byID[id] = mb
	return mb
}

// Sequence returns the sequence without validating it.
func (b *Builder) Sequence() domain.Sequence {
	seq := b.seq
	seq.Messages = make([]domain.Message, 0, len(b.messages))
	for _, mb := range b.messages {
		seq.Messages = append(seq.Messages, mb.msg)
	}
	return seq
}

// Build validates the sequence and returns it with its lookup index built.
// Warnings (dangling edges) are returned alongside a usable sequence.
func (b *Builder) Build() (*domain.Sequence, []sequence.Warning, error) {
	seq := b.Sequence()
	warnings, err := sequence.Validate(&seq)
	if err != nil {
		return nil, warnings, fmt.Errorf("sequence %s: %w", seq.ID, err)
	}
	seq.BuildIndex()
	return &seq, warnings, nil
}

// Source compiles the builders into an in-memory sequence source.
func Source(builders ...*Builder) (*memory.Source, error) {
	sequences := make([]domain.Sequence, 0, len(builders))
	for _, b := range builders {
		seq, _, err := b.Build()
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, *seq)
	}

	source, err := memory.NewFromSequences(sequences...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory source: %w", err)
	}
	return source, nil
}
