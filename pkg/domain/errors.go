package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSequenceNotFound is returned by sequence sources when no document exists for an id.
var ErrSequenceNotFound = errors.New("sequence not found")

// ErrMessageNotFound is returned when a user event references an unknown message id.
var ErrMessageNotFound = errors.New("message not found")

// ErrInvalidChoice is returned when a selected choice index is out of range.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrorKind classifies failures at the loading and traversal boundaries.
type ErrorKind string

const (
	ErrLoad            ErrorKind = "loadError"
	ErrAssetNotFound   ErrorKind = "assetNotFound"
	ErrInvalidFormat   ErrorKind = "invalidFormat"
	ErrProcessing      ErrorKind = "processingError"
	ErrTemplate        ErrorKind = "templateError"
	ErrCondition       ErrorKind = "conditionError"
	ErrFlow            ErrorKind = "flowError"
	ErrAssetValidation ErrorKind = "assetValidation"
)

// ScriptError carries enough context to diagnose a failure without leaking internals to the user.
type ScriptError struct {
	Kind       ErrorKind
	SequenceID string
	MessageID  *int
	Template   string
	Condition  string
	Err        error
}

func (e *ScriptError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.SequenceID != "" {
		fmt.Fprintf(&b, " sequence=%s", e.SequenceID)
	}
	if e.MessageID != nil {
		fmt.Fprintf(&b, " message=%d", *e.MessageID)
	}
	if e.Template != "" {
		fmt.Fprintf(&b, " template=%q", e.Template)
	}
	if e.Condition != "" {
		fmt.Fprintf(&b, " condition=%q", e.Condition)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// UserMessage is a conversational, non-technical line the host can show instead of the error.
func (e *ScriptError) UserMessage() string {
	switch e.Kind {
	case ErrLoad, ErrAssetNotFound:
		return "Hmm, I can't find what I wanted to say next."
	case ErrInvalidFormat, ErrAssetValidation:
		return "Something in my script looks a bit off."
	case ErrTemplate:
		return "I couldn't fill in some details of that message."
	case ErrCondition:
		return "I wasn't sure which way to go there."
	case ErrProcessing:
		return "I couldn't save that just now."
	case ErrFlow:
		return "I lost my train of thought for a moment."
	}
	return "Something went wrong on my side."
}

// RecoveryHint tells the host what the engine does to recover from the error.
func (e *ScriptError) RecoveryHint() string {
	switch e.Kind {
	case ErrLoad, ErrAssetNotFound:
		return "will stop this conversation here"
	case ErrInvalidFormat, ErrAssetValidation:
		return "will skip the broken part of the script"
	case ErrTemplate:
		return "will continue with default text"
	case ErrCondition:
		return "will take the default path"
	case ErrProcessing:
		return "will continue without saving"
	case ErrFlow:
		return "will stop producing messages for now"
	}
	return "will continue"
}

// NewScriptError is a convenience constructor for the common sequence/message context.
func NewScriptError(kind ErrorKind, sequenceID string, messageID *int, err error) *ScriptError {
	return &ScriptError{Kind: kind, SequenceID: sequenceID, MessageID: messageID, Err: err}
}

// KindOf returns the ErrorKind of err if it wraps a ScriptError.
func KindOf(err error) (ErrorKind, bool) {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
