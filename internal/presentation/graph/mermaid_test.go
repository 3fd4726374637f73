package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	seq := &domain.Sequence{
		ID: "onboarding",
		Messages: []domain.Message{
			{ID: 1, Kind: domain.KindText, Text: "Hello there", NextMessageID: domain.IntPtr(2)},
			{ID: 2, Kind: domain.KindChoice, Text: "Continue?", Choices: []domain.Choice{
				{Text: "Yes", NextMessageID: domain.IntPtr(3)},
				{Text: `Say "no"`, SequenceID: "bye-bye"},
			}},
			{ID: 3, Kind: domain.KindAutoroute, Routes: []domain.Route{
				{Condition: `user.age >= 18`, NextMessageID: domain.IntPtr(4)},
				{Default: true, NextMessageID: domain.IntPtr(5)},
			}},
			{ID: 4, Kind: domain.KindDataAction, NextMessageID: domain.IntPtr(5)},
			{ID: 5, Kind: domain.KindTextInput, Text: "This is a rather long prompt that must be cut short"},
		},
	}

	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
	}{
		{
			name: "Node Shapes",
			contains: []string{
				`m1(("1: Hello there"))`,
				`m2[/"2: Continue?"/]`,
				`m3{"3: autoroute"}`,
				`m4[["4: dataAction"]]`,
				`m5[/"5: This is a rather long prompt ..."/]`,
			},
		},
		{
			name: "Edges",
			contains: []string{
				`m1 --> m2`,
				`m2 -- "Yes" --> m3`,
				`m2 -. "Say 'no'" .-> seq_bye_bye`,
				`m3 -- "user.age >= 18" --> m4`,
				`m3 -- "default" --> m5`,
				`m4 --> m5`,
				`seq_bye_bye(["bye-bye"])`,
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{Visited: []int{1, 2, 2, 99}, Current: domain.IntPtr(2)},
			contains: []string{
				"classDef visited",
				"class m1 visited;",
				"class m2 current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(seq, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("expected flowchart header, got:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
		})
	}
}

func TestGenerateMermaid_OverlayDeduplicates(t *testing.T) {
	seq := &domain.Sequence{ID: "s", Messages: []domain.Message{{ID: 1, Kind: domain.KindText, Text: "hi"}}}
	got := graph.GenerateMermaid(seq, &graph.Overlay{Visited: []int{1, 1, 1}})
	if n := strings.Count(got, "class m1 visited;"); n != 1 {
		t.Errorf("expected one visited class line, got %d", n)
	}
}
