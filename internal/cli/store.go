package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
)

// PrintStore writes every stored path, sorted, one per line.
func PrintStore(ctx context.Context, store ports.KeyValueStore, w io.Writer) error {
	all, err := store.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(w, "Store is empty.")
		return nil
	}
	paths := make([]string, 0, len(all))
	for p := range all {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(w, "%s = %s\n", p, kv.Format(all[p]))
	}
	return nil
}

// GetValue prints the value at path as JSON.
func GetValue(ctx context.Context, store ports.KeyValueStore, path string, w io.Writer) error {
	value, ok, err := store.Get(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no value at %s", path)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// SetValue stores raw at path. Raw is parsed as JSON when possible ("3", "true", "[1,2]")
// and stored as a plain string otherwise.
func SetValue(ctx context.Context, store ports.KeyValueStore, path, raw string) error {
	return store.Set(ctx, path, ParseValue(raw))
}

// ParseValue interprets command-line input as a store value.
func ParseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	if _, isMap := v.(map[string]any); isMap {
		return raw
	}
	return v
}
