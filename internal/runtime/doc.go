// Package runtime walks a loaded sequence from a start message and collects the messages
// to display until it reaches an interactive message, a sequence transition or the end.
package runtime
