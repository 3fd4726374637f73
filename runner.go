package parley

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/parley/pkg/delivery"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/input"
)

// Runner plays a conversation over plain IO: it prints each turn with its delays and reads
// the user's answers line by line. This allows for easy testing and integration with
// different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// ConsumerID names the delivery queue used for pacing. Defaults to "runner".
	ConsumerID string
}

// ContentRenderer transforms message text before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(msg domain.Message) (string, error)

// Run plays sequenceID until the conversation ends, input reaches EOF, or the user types
// "exit" or "quit".
func (r *Runner) Run(ctx context.Context, engine *Engine, sequenceID string) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	consumer := r.ConsumerID
	if consumer == "" {
		consumer = "runner"
	}
	lines := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- %s ---\n", sequenceID)
	}

	turn, err := engine.Start(ctx, sequenceID)
	for {
		if turn != nil {
			if _, derr := engine.Deliver(ctx, consumer, turn, delivery.SinkFunc(r.print)); derr != nil {
				return fmt.Errorf("delivery error: %w", derr)
			}
		}
		if err != nil {
			return err
		}

		awaiting, ok := turn.Awaiting()
		if !ok {
			return nil
		}

		for {
			if !r.Headless {
				fmt.Fprint(r.Output, "> ")
			}
			text, rerr := lines.ReadString('\n')
			line := strings.TrimSpace(text)
			if rerr != nil && (rerr != io.EOF || line == "") {
				if rerr == io.EOF {
					return nil
				}
				return fmt.Errorf("input error: %w", rerr)
			}
			if line == "exit" || line == "quit" {
				fmt.Fprintln(r.Output, "Bye!")
				return nil
			}

			turn, err = r.answer(ctx, engine, awaiting, line)
			if errors.Is(err, domain.ErrInvalidChoice) {
				fmt.Fprintf(r.Output, "Please pick a number between 1 and %d.\n", len(awaiting.Message.Choices))
				continue
			}
			if errors.Is(err, input.ErrTooLarge) || errors.Is(err, input.ErrInvalidUTF8) {
				fmt.Fprintln(r.Output, "Sorry, I couldn't read that. Try something shorter.")
				continue
			}
			break
		}
	}
}

func (r *Runner) answer(ctx context.Context, engine *Engine, awaiting Entry, line string) (*Turn, error) {
	msg := awaiting.Message
	if msg.Kind == domain.KindTextInput {
		return engine.SubmitText(ctx, awaiting.SequenceID, msg.ID, line)
	}
	return engine.SelectChoice(ctx, awaiting.SequenceID, msg.ID, choiceIndex(msg, line))
}

// choiceIndex accepts a 1-based number or the choice text. Unknown input yields -1.
func choiceIndex(msg domain.Message, line string) int {
	if n, err := strconv.Atoi(line); err == nil {
		return n - 1
	}
	for i, c := range msg.Choices {
		if strings.EqualFold(c.Text, line) {
			return i
		}
	}
	return -1
}

func (r *Runner) print(ctx context.Context, item delivery.Item) error {
	msg := item.Message
	text := msg.Text
	if r.Renderer != nil {
		if rendered, err := r.Renderer(msg); err == nil {
			text = rendered
		}
	}
	if text = strings.TrimSpace(text); text != "" {
		fmt.Fprintln(r.Output, text)
	}

	switch msg.Kind {
	case domain.KindChoice:
		for i, c := range msg.Choices {
			fmt.Fprintf(r.Output, "  %d) %s\n", i+1, c.Text)
		}
	case domain.KindTextInput:
		if msg.Placeholder != "" && !r.Headless {
			fmt.Fprintf(r.Output, "  (%s)\n", msg.Placeholder)
		}
	}
	return nil
}
