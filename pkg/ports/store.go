package ports

import "context"

// KeyValueStore defines the persistent user-data store the engine reads and writes.
// Missing keys are never errors: Get reports them with ok == false.
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the value stored at path.
	Get(ctx context.Context, path string) (value any, ok bool, err error)

	// Set stores value at path. A nil value deletes the key.
	Set(ctx context.Context, path string, value any) error

	// Has reports whether a value exists at path.
	Has(ctx context.Context, path string) (bool, error)

	// Delete removes path. Deleting a missing key is not an error.
	Delete(ctx context.Context, path string) error

	// GetAll returns a snapshot of every stored path.
	GetAll(ctx context.Context) (map[string]any, error)

	// Clear removes every stored path.
	Clear(ctx context.Context) error
}
