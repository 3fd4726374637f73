package ports

import "context"

// SequenceSource defines how the engine retrieves sequence documents.
// This allows the storage layer (filesystem, embedded assets, memory) to be decoupled.
type SequenceSource interface {
	// Fetch returns the raw document (JSON or YAML) of a sequence and its format
	// ("json" or "yaml"). Returns domain.ErrSequenceNotFound when the id is unknown.
	Fetch(ctx context.Context, sequenceID string) (data []byte, format string, err error)

	// List returns the ids of every sequence the source knows about.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload during script authoring.
type Watchable interface {
	// Watch returns a channel that receives the id of every sequence that changed.
	Watch(ctx context.Context) (<-chan string, error)
}
