package templating_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/templating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	store := memory.NewStore(map[string]any{
		"user.name":      "Bob",
		"user.interests": []any{"Flutter", "Dart"},
		"user.premium":   false,
		"user.age":       30.0,
		"user.ratio":     0.25,
	})
	svc := templating.New(store)
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Hello there", "Hello there"},
		{"resolved", "Hello {user.name}!", "Hello Bob!"},
		{"spaces inside braces", "Hello { user.name }!", "Hello Bob!"},
		{"unresolved stays verbatim", "Hello {user.nickname}!", "Hello {user.nickname}!"},
		{"fallback", "{x|fallback}", "fallback"},
		{"empty fallback", "Hi{user.nickname|}!", "Hi!"},
		{"fallback ignored when present", "{user.name|friend}", "Bob"},
		{"list", "You like {user.interests}", "You like [Flutter, Dart]"},
		{"bool", "premium={user.premium}", "premium=false"},
		{"whole float", "age {user.age}", "age 30"},
		{"fraction", "ratio {user.ratio}", "ratio 0.25"},
		{"unbalanced open", "Hello {user.name", "Hello {user.name"},
		{"unbalanced close", "Hello user.name}", "Hello user.name}"},
		{"brace in fallback", "{x|a{b}", "a{b"},
		{"invalid path", "{not a path}", "{not a path}"},
		{"multiple", "{user.name} and {user.name}", "Bob and Bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Process(ctx, tt.in))
		})
	}
}

func TestProcess_SetAfterUnset(t *testing.T) {
	store := memory.NewStore()
	svc := templating.New(store)
	ctx := context.Background()

	assert.Equal(t, "Hello {user.name}!", svc.Process(ctx, "Hello {user.name}!"))
	require.NoError(t, store.Set(ctx, "user.name", "Bob"))
	assert.Equal(t, "Hello Bob!", svc.Process(ctx, "Hello {user.name}!"))
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) Get(context.Context, string) (any, bool, error) {
	return nil, false, errors.New("io failure")
}

func TestRender_StoreFailure(t *testing.T) {
	svc := templating.New(brokenStore{memory.NewStore()})

	out, err := svc.Render(context.Background(), "Hi {user.name|friend}")
	assert.Equal(t, "Hi {user.name|friend}", out)

	var scriptErr *domain.ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, domain.ErrTemplate, scriptErr.Kind)
	assert.Equal(t, "Hi {user.name|friend}", scriptErr.Template)
	assert.Equal(t, "will continue with default text", scriptErr.RecoveryHint())
}

func TestProcessMessage(t *testing.T) {
	store := memory.NewStore(map[string]any{"user.name": "Bob"})
	svc := templating.New(store)

	original := domain.Message{
		ID:          1,
		Kind:        domain.KindChoice,
		Text:        "Ready, {user.name}?",
		Placeholder: "{user.name|name}",
		Choices: []domain.Choice{
			{Text: "Yes, I'm {user.name}", NextMessageID: domain.IntPtr(2)},
		},
	}

	got := svc.ProcessMessage(context.Background(), original)
	assert.Equal(t, "Ready, Bob?", got.Text)
	assert.Equal(t, "Bob", got.Placeholder)
	assert.Equal(t, "Yes, I'm Bob", got.Choices[0].Text)

	// The loaded message is never mutated.
	assert.Equal(t, "Yes, I'm {user.name}", original.Choices[0].Text)
}

func TestReference(t *testing.T) {
	path, ok := templating.Reference("{session.timeOfDay}")
	assert.True(t, ok)
	assert.Equal(t, "session.timeOfDay", path)

	for _, in := range []string{"x {a}", "{a|b}", "{a} {b}", "plain", "{a"} {
		_, ok := templating.Reference(in)
		assert.False(t, ok, in)
	}
}
