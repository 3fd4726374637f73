package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSequence_Index(t *testing.T) {
	seq := &Sequence{
		ID: "welcome",
		Messages: []Message{
			{ID: 1, Kind: KindText, Text: "first"},
			{ID: 2, Kind: KindText, Text: "second"},
			{ID: 1, Kind: KindText, Text: "duplicate"},
		},
	}

	// Unindexed sequences still answer lookups.
	if !seq.HasMessage(2) {
		t.Error("expected message 2 before indexing")
	}

	seq.BuildIndex()
	msg, ok := seq.MessageByID(1)
	if !ok || msg.Text != "first" {
		t.Errorf("expected first definition of id 1 to win, got %q", msg.Text)
	}
	if seq.HasMessage(99) {
		t.Error("did not expect message 99")
	}
	if first, _ := seq.FirstID(); first != 1 {
		t.Errorf("expected first id 1, got %d", first)
	}
}

func TestMessageKind(t *testing.T) {
	if !KindChoice.Interactive() || !KindTextInput.Interactive() || KindText.Interactive() {
		t.Error("interactive classification is wrong")
	}
	if !KindAutoroute.Silent() || !KindDataAction.Silent() || KindText.Silent() {
		t.Error("silent classification is wrong")
	}
	if MessageKind("video").Valid() {
		t.Error("unknown kind must not be valid")
	}
}

func TestChoice_StoredValue(t *testing.T) {
	if got := (Choice{Text: "Yes"}).StoredValue(); got != "Yes" {
		t.Errorf("expected text fallback, got %v", got)
	}
	if got := (Choice{Text: "Yes", Value: true}).StoredValue(); got != true {
		t.Errorf("expected explicit value, got %v", got)
	}
}

func TestScriptError(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("loading: %w", NewScriptError(ErrFlow, "welcome", IntPtr(3), cause))

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable through Unwrap")
	}
	kind, ok := KindOf(err)
	if !ok || kind != ErrFlow {
		t.Errorf("expected flowError, got %v", kind)
	}

	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatal("expected ScriptError")
	}
	if se.Error() != "flowError sequence=welcome message=3: boom" {
		t.Errorf("unexpected message: %s", se.Error())
	}
	if se.UserMessage() == "" || se.RecoveryHint() == "" {
		t.Error("every kind needs a fallback message and a hint")
	}
	if (&ScriptError{Kind: ErrCondition}).RecoveryHint() != "will take the default path" {
		t.Error("condition errors should take the default path")
	}
}
