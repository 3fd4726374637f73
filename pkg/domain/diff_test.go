package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      map[string]any
		new      map[string]any
		wantDiff *StoreDiff // nil means we expect no diff
	}{
		{
			name:     "Initial Load (Old is Nil)",
			old:      nil,
			new:      map[string]any{"user.name": "Bob"},
			wantDiff: &StoreDiff{Changed: map[string]any{"user.name": "Bob"}},
		},
		{
			name:     "No Changes",
			old:      map[string]any{"session.visitCount": int64(2)},
			new:      map[string]any{"session.visitCount": int64(2)},
			wantDiff: nil,
		},
		{
			name: "Added & Modified",
			old:  map[string]any{"a": int64(1), "b": "old"},
			new:  map[string]any{"a": int64(1), "b": "new", "c": true},
			wantDiff: &StoreDiff{
				Changed: map[string]any{"b": "new", "c": true},
			},
		},
		{
			name: "List Modified",
			old:  map[string]any{"user.tags": []any{"a"}},
			new:  map[string]any{"user.tags": []any{"a", "b"}},
			wantDiff: &StoreDiff{
				Changed: map[string]any{"user.tags": []any{"a", "b"}},
			},
		},
		{
			name:     "Deletion",
			old:      map[string]any{"a": int64(1), "c": int64(3), "b": int64(2)},
			new:      map[string]any{"a": int64(1)},
			wantDiff: &StoreDiff{Removed: []string{"b", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}
			if !reflect.DeepEqual(got.Changed, tt.wantDiff.Changed) {
				t.Errorf("Diff().Changed = %v, want %v", got.Changed, tt.wantDiff.Changed)
			}
			if !reflect.DeepEqual(got.Removed, tt.wantDiff.Removed) {
				t.Errorf("Diff().Removed = %v, want %v", got.Removed, tt.wantDiff.Removed)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	diff := Diff(map[string]any{"a": int64(1)}, map[string]any{"b": "x"})
	if diff == nil {
		t.Fatal("Expected diff, got nil")
	}

	bytes, _ := json.Marshal(diff)
	if !strings.Contains(string(bytes), `"removed":["a"]`) {
		t.Errorf("JSON should list removed paths, got: %s", string(bytes))
	}
	if !strings.Contains(string(bytes), `"changed":{"b":"x"}`) {
		t.Errorf("JSON should contain changed paths, got: %s", string(bytes))
	}
}
