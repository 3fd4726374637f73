package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/delay"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := dsl.New("welcome").Name("Welcome")

	b.Text(1, "Hello, DSL!").Next(2)
	b.Input(2, "What is your name?", "user.name").Placeholder("Ada").Next(3)
	b.Text(3, "Nice to meet you, {user.name}!")

	seq, warnings, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if seq.ID != "welcome" || seq.Name != "Welcome" {
		t.Errorf("Unexpected header: %s %q", seq.ID, seq.Name)
	}
	if len(seq.Messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(seq.Messages))
	}

	first, _ := seq.FirstID()
	if first != 1 {
		t.Errorf("Expected first message 1, got %d", first)
	}
	input, ok := seq.MessageByID(2)
	if !ok {
		t.Fatal("message 2 not found")
	}
	if input.Kind != domain.KindTextInput || input.StoreKey != "user.name" || input.Placeholder != "Ada" {
		t.Errorf("Unexpected input message: %+v", input)
	}
	if input.NextMessageID == nil || *input.NextMessageID != 3 {
		t.Errorf("Expected input to continue at 3")
	}
	if input.Sender != domain.SenderBot {
		t.Errorf("Expected bot sender by default, got %q", input.Sender)
	}
}

func TestBuilder_ChoicesAndRoutes(t *testing.T) {
	b := dsl.New("menu")
	b.Autoroute(1).When("user.visits > 1", 3).Otherwise(2)
	b.Choice(2, "Coffee?").
		Option("Yes", 3).Value(true).OnSelect(dsl.Increment("stats.coffee", nil)).
		OptionTo("No", "goodbye")
	b.Text(3, "Enjoy.").Delay(0)

	seq := b.Sequence()
	route := seq.Messages[0]
	if len(route.Routes) != 2 || !route.Routes[1].Default {
		t.Fatalf("Unexpected routes: %+v", route.Routes)
	}

	choice := seq.Messages[1]
	if len(choice.Choices) != 2 {
		t.Fatalf("Expected 2 choices, got %d", len(choice.Choices))
	}
	if choice.Choices[0].Value != true || len(choice.Choices[0].Actions) != 1 {
		t.Errorf("Value/OnSelect should target the first choice: %+v", choice.Choices[0])
	}
	if choice.Choices[1].SequenceID != "goodbye" || choice.Choices[1].Value != nil {
		t.Errorf("Unexpected second choice: %+v", choice.Choices[1])
	}
}

func TestBuilder_Idempotent(t *testing.T) {
	b := dsl.New("dup")
	b.Text(1, "first")
	b.Text(1, "second").Next(2)

	seq := b.Sequence()
	if len(seq.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(seq.Messages))
	}
	if seq.Messages[0].Text != "first" {
		t.Errorf("Expected the existing builder to be returned, got %q", seq.Messages[0].Text)
	}
}

func TestBuilder_Invalid(t *testing.T) {
	b := dsl.New("broken")
	b.Choice(1, "Pick one")

	if _, _, err := b.Build(); err == nil {
		t.Fatal("Expected error for a choice without choices")
	}
	if _, err := dsl.Source(b); err == nil {
		t.Fatal("Expected Source to reject an invalid sequence")
	}
}

func TestSource_Engine(t *testing.T) {
	welcome := dsl.New("welcome")
	welcome.Action(1, dsl.Set("user.mood", "good"), dsl.Append("user.tags", "new")).Next(2)
	welcome.Text(2, "Mood: {user.mood}").Goto("goodbye")

	goodbye := dsl.New("goodbye")
	goodbye.Text(1, "Bye!")

	source, err := dsl.Source(welcome, goodbye)
	if err != nil {
		t.Fatalf("Source() failed: %v", err)
	}

	store := memory.NewStore()
	engine, err := parley.New(source, store, parley.WithDelayPolicy(delay.New(delay.WithInstant(true))))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer engine.Close()

	turn, err := engine.Start(context.Background(), "welcome")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	var texts []string
	for _, entry := range turn.Entries {
		texts = append(texts, entry.Message.Text)
	}
	if len(texts) != 2 || texts[0] != "Mood: good" || texts[1] != "Bye!" {
		t.Errorf("Unexpected conversation: %q", texts)
	}
	if v, _, _ := store.Get(context.Background(), "user.tags"); len(v.([]any)) != 1 {
		t.Errorf("Expected one tag, got %v", v)
	}
}
