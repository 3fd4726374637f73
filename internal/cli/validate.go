package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/sequence"
)

// ValidateDir decodes and validates every sequence in dir. Warnings are printed and do not
// fail validation. It returns the number of valid sequences.
func ValidateDir(ctx context.Context, dir string, w io.Writer) (int, error) {
	source := file.NewSource(dir)
	ids, err := source.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("no sequences found in %s", dir)
	}

	var (
		errs  []error
		valid int
	)
	for _, id := range ids {
		seq, warnings, err := loadSequence(ctx, source, id)
		if err != nil {
			fmt.Fprintf(w, "✗ %s\n", id)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		valid++
		fmt.Fprintf(w, "✓ %s (%d messages)\n", seq.ID, len(seq.Messages))
		for _, warn := range warnings {
			fmt.Fprintf(w, "  ! message %d: %s\n", warn.MessageID, warn.Detail)
		}
	}
	return valid, errors.Join(errs...)
}

func loadSequence(ctx context.Context, source *file.Source, id string) (*domain.Sequence, []sequence.Warning, error) {
	data, format, err := source.Fetch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	seq, err := sequence.Decode(data, format)
	if err != nil {
		return nil, nil, err
	}
	if seq.ID != id {
		return nil, nil, fmt.Errorf("file declares sequenceId %q", seq.ID)
	}
	warnings, err := sequence.Validate(seq)
	if err != nil {
		return nil, nil, err
	}
	seq.BuildIndex()
	return seq, warnings, nil
}

// PrintGraph writes the Mermaid flowchart of a sequence.
func PrintGraph(ctx context.Context, dir, id string, overlay *graph.Overlay, w io.Writer) error {
	seq, _, err := loadSequence(ctx, file.NewSource(dir), id)
	if err != nil {
		return err
	}
	fmt.Fprint(w, graph.GenerateMermaid(seq, overlay))
	return nil
}
