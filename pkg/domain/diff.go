package domain

import (
	"reflect"
	"sort"
)

// StoreDiff represents the changes between two store snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StoreDiff struct {
	// Changed contains added or modified paths.
	Changed map[string]any `json:"changed,omitempty"`

	// Removed lists deleted paths.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between two snapshots.
// If before is nil, every path in after is reported as changed (initial load).
func Diff(before, after map[string]any) *StoreDiff {
	diff := &StoreDiff{}

	for k, newVal := range after {
		oldVal, exists := before[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			if diff.Changed == nil {
				diff.Changed = make(map[string]any)
			}
			diff.Changed[k] = newVal
		}
	}

	for k := range before {
		if _, exists := after[k]; !exists {
			diff.Removed = append(diff.Removed, k)
		}
	}

	sort.Strings(diff.Removed)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StoreDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Removed) == 0)
}
