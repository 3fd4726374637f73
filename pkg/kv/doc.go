/*
Package kv holds the value conventions shared by every KeyValueStore adapter.

Stored values are normalised to a small canonical set (string, bool, int64, float64 and
[]any of those) so that an in-memory store and a JSON-backed store answer reads identically.
Typed reads are permissive: a missing key or a type mismatch returns ok == false and never
an error.
*/
package kv
