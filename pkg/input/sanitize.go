// Package input cleans free text typed by the user before it reaches the store.
package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSize is the byte limit applied when no explicit limit is configured.
const DefaultMaxSize = 4096

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize enforces the size limit, validates UTF-8 and strips control characters other
// than newline, tab and carriage return. A limit <= 0 means DefaultMaxSize.
func Sanitize(text string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	// Reject rather than truncate: a cut answer would be stored as if the user typed it.
	if len(text) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range text {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
