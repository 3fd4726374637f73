/*
Package ports defines the driven ports (interfaces) of the parley engine.

These interfaces decouple the conversation core from external implementations, allowing
the engine to work with various storage backends, script sources and notification hosts.

# Key Interfaces

  - KeyValueStore: namespaced persistent store of scalar and list values keyed by dotted paths.
  - SequenceSource: returns the raw document of a named sequence (memory, filesystem, ...).
  - Watchable: optional capability of sources that can report changed sequences.
  - EventSink: receives trigger events (e.g. notification rescheduling) emitted by scripts.
*/
package ports
