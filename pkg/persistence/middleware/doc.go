// Package middleware provides KeyValueStore decorators: at-rest encryption of values
// and read-side redaction of sensitive paths.
package middleware
