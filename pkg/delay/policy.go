// Package delay decides how long to pause before showing each message, so bot replies
// feel typed rather than dumped.
package delay

import (
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

// Defaults for production mode.
const (
	DefaultChoiceDelay = 1200 * time.Millisecond
	DefaultBase        = 800 * time.Millisecond
	DefaultPerWord     = 120 * time.Millisecond
	DefaultMin         = 1000 * time.Millisecond
	DefaultMax         = 5000 * time.Millisecond
)

// Policy computes delays. The zero value is not useful; use New.
type Policy struct {
	Instant     bool          `yaml:"instant" mapstructure:"instant"`
	ChoiceDelay time.Duration `yaml:"choice_delay" mapstructure:"choice_delay"`
	Base        time.Duration `yaml:"base" mapstructure:"base"`
	PerWord     time.Duration `yaml:"per_word" mapstructure:"per_word"`
	Min         time.Duration `yaml:"min" mapstructure:"min"`
	Max         time.Duration `yaml:"max" mapstructure:"max"`
}

// Option configures a Policy.
type Option func(*Policy)

// WithInstant disables every pause, e.g. for tests or piped output.
func WithInstant(instant bool) Option {
	return func(p *Policy) {
		p.Instant = instant
	}
}

// WithTyping overrides the word-count formula and its clamp.
func WithTyping(base, perWord, min, max time.Duration) Option {
	return func(p *Policy) {
		p.Base, p.PerWord, p.Min, p.Max = base, perWord, min, max
	}
}

// WithChoiceDelay overrides the pause before choice messages.
func WithChoiceDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.ChoiceDelay = d
	}
}

// New creates a Policy with production defaults.
func New(opts ...Option) *Policy {
	p := &Policy{
		ChoiceDelay: DefaultChoiceDelay,
		Base:        DefaultBase,
		PerWord:     DefaultPerWord,
		Min:         DefaultMin,
		Max:         DefaultMax,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Max < p.Min {
		p.Max = p.Min
	}
	return p
}

// Before returns the pause before next, given the message shown just before it (nil for
// the first message of a turn). Rules apply in order: instant mode, user messages, choice
// messages, explicit delay, then reading time of prev.
func (p *Policy) Before(prev *domain.Message, next domain.Message) time.Duration {
	if p.Instant {
		return 0
	}
	if next.IsUser() {
		return 0
	}
	if next.Kind == domain.KindChoice {
		return p.ChoiceDelay
	}
	if next.Delay != nil {
		if *next.Delay < 0 {
			return 0
		}
		return time.Duration(*next.Delay) * time.Millisecond
	}

	words := 0
	if prev != nil {
		words = len(strings.Fields(prev.Text))
	}
	d := p.Base + time.Duration(words)*p.PerWord
	switch {
	case d < p.Min:
		return p.Min
	case d > p.Max:
		return p.Max
	}
	return d
}
