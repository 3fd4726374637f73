package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// extensions are tried in order when resolving a sequence id to a file.
var extensions = []string{".json", ".yaml", ".yml"}

// Source implements ports.SequenceSource and ports.Watchable over a directory.
// Each sequence lives in "<dir>/<sequenceId>.json" (or .yaml/.yml).
type Source struct {
	Dir    string
	logger *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLogger sets the logger used by the watcher.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string, opts ...SourceOption) *Source {
	s := &Source{Dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch reads the document of a sequence.
func (s *Source) Fetch(ctx context.Context, sequenceID string) ([]byte, string, error) {
	if sequenceID == "" || strings.ContainsAny(sequenceID, `/\`) || strings.Contains(sequenceID, "..") {
		return nil, "", fmt.Errorf("invalid sequence id %q", sequenceID)
	}
	for _, ext := range extensions {
		path := filepath.Join(s.Dir, sequenceID+ext)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, formatOf(ext), nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("failed to read sequence file %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("%w: %s", domain.ErrSequenceNotFound, sequenceID)
}

// List returns the ids of every sequence file in the directory.
func (s *Source) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := sequenceIDOf(entry.Name()); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch reports the id of every sequence file that is written, created, renamed or removed.
// The channel is closed when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Dir, err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				id, ok := sequenceIDOf(filepath.Base(event.Name))
				if !ok {
					continue
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("sequence watcher error", "dir", s.Dir, "err", err)
			}
		}
	}()
	return out, nil
}

func sequenceIDOf(name string) (string, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	ext := filepath.Ext(name)
	for _, known := range extensions {
		if ext == known {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

func formatOf(ext string) string {
	if ext == ".json" {
		return "json"
	}
	return "yaml"
}
