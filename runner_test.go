package parley_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_PlaysConversation(t *testing.T) {
	eng, store := newEngine(t)
	var out bytes.Buffer

	runner := &parley.Runner{
		Input:    strings.NewReader("1\nAda\n"),
		Output:   &out,
		Headless: true,
	}
	require.NoError(t, runner.Run(context.Background(), eng, "welcome"))

	got := out.String()
	assert.Contains(t, got, "Hi friend!")
	assert.Contains(t, got, "  1) Yes\n  2) No\n")
	assert.Contains(t, got, "Nice to meet you, Ada.")

	name, _, _ := store.Get(context.Background(), "user.name")
	assert.Equal(t, "Ada", name)
}

func TestRunner_ChoiceByText(t *testing.T) {
	eng, _ := newEngine(t)
	var out bytes.Buffer

	runner := &parley.Runner{Input: strings.NewReader("no\n"), Output: &out, Headless: true}
	require.NoError(t, runner.Run(context.Background(), eng, "welcome"))

	assert.Contains(t, out.String(), "Bye!")
}

func TestRunner_InvalidChoiceReprompts(t *testing.T) {
	eng, _ := newEngine(t)
	var out bytes.Buffer

	runner := &parley.Runner{Input: strings.NewReader("9\n2\n"), Output: &out, Headless: true}
	require.NoError(t, runner.Run(context.Background(), eng, "welcome"))

	assert.Contains(t, out.String(), "Please pick a number between 1 and 2.")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunner_Exit(t *testing.T) {
	eng, _ := newEngine(t)
	var out bytes.Buffer

	runner := &parley.Runner{Input: strings.NewReader("quit\n1\n"), Output: &out}
	require.NoError(t, runner.Run(context.Background(), eng, "welcome"))

	assert.Contains(t, out.String(), "--- welcome ---")
	assert.Contains(t, out.String(), "Bye!")
	assert.NotContains(t, out.String(), "Your name?")
}

func TestRunner_EOF(t *testing.T) {
	eng, _ := newEngine(t)
	var out bytes.Buffer

	runner := &parley.Runner{Input: strings.NewReader(""), Output: &out, Headless: true}
	assert.NoError(t, runner.Run(context.Background(), eng, "welcome"))
}

func TestRunner_Renderer(t *testing.T) {
	eng, _ := newEngine(t)
	var out bytes.Buffer

	runner := &parley.Runner{
		Input:    strings.NewReader("exit\n"),
		Output:   &out,
		Headless: true,
		Renderer: func(msg domain.Message) (string, error) {
			return strings.ToUpper(msg.Text), nil
		},
	}
	require.NoError(t, runner.Run(context.Background(), eng, "welcome"))

	assert.Contains(t, out.String(), "HI FRIEND!")
}

func TestRunner_RequiresIO(t *testing.T) {
	eng, _ := newEngine(t)

	assert.Error(t, (&parley.Runner{Output: &bytes.Buffer{}}).Run(context.Background(), eng, "welcome"))
	assert.Error(t, (&parley.Runner{Input: strings.NewReader("")}).Run(context.Background(), eng, "welcome"))
}
