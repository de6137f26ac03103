package orchestrator

import (
	"errors"
	"testing"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
)

func TestNewGraphValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		specs   []TaskSpec
		wantErr error
	}{
		{
			name:    "empty graph",
			specs:   nil,
			wantErr: ErrInvalidGraph,
		},
		{
			name: "missing task id",
			specs: []TaskSpec{
				{ID: "", Kind: agents.KindAnalysis},
			},
			wantErr: ErrInvalidGraph,
		},
		{
			name: "duplicate task id",
			specs: []TaskSpec{
				{ID: "a", Kind: agents.KindAnalysis},
				{ID: "a", Kind: agents.KindTrends},
			},
			wantErr: ErrInvalidGraph,
		},
		{
			name: "unknown dependency",
			specs: []TaskSpec{
				{ID: "a", Kind: agents.KindRecommend, DependsOn: []Dep{{ID: "ghost"}}},
			},
			wantErr: ErrInvalidGraph,
		},
		{
			name: "self loop",
			specs: []TaskSpec{
				{ID: "a", Kind: agents.KindAnalysis, DependsOn: []Dep{{ID: "a"}}},
			},
			wantErr: ErrInvalidGraph,
		},
		{
			name: "two node cycle",
			specs: []TaskSpec{
				{ID: "a", Kind: agents.KindRetrieval, DependsOn: []Dep{{ID: "b"}}},
				{ID: "b", Kind: agents.KindRecommend, DependsOn: []Dep{{ID: "a"}}},
			},
			wantErr: ErrGraphCycle,
		},
		{
			name: "three node cycle",
			specs: []TaskSpec{
				{ID: "a", Kind: agents.KindRetrieval, DependsOn: []Dep{{ID: "c"}}},
				{ID: "b", Kind: agents.KindRecommend, DependsOn: []Dep{{ID: "a"}}},
				{ID: "c", Kind: agents.KindNotify, DependsOn: []Dep{{ID: "b"}}},
			},
			wantErr: ErrGraphCycle,
		},
		{
			name: "valid diamond",
			specs: []TaskSpec{
				{ID: "root", Kind: agents.KindRetrieval},
				{ID: "left", Kind: agents.KindRecommend, DependsOn: []Dep{{ID: "root"}}},
				{ID: "right", Kind: agents.KindAnalysis, DependsOn: []Dep{{ID: "root"}}},
				{ID: "sink", Kind: agents.KindNotify, DependsOn: []Dep{{ID: "left"}, {ID: "right"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, err := NewGraph(tt.specs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewGraph error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGraph failed: %v", err)
			}
			for _, spec := range tt.specs {
				state, ok := g.State(spec.ID)
				if !ok || state != StatePending {
					t.Errorf("task %q: got state %q, want %q", spec.ID, state, StatePending)
				}
			}
		})
	}
}

func TestGraphStateUnknownID(t *testing.T) {
	t.Parallel()

	g, err := NewGraph([]TaskSpec{{ID: "a", Kind: agents.KindAnalysis}})
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}
	if _, ok := g.State("missing"); ok {
		t.Error("State should report unknown ids")
	}
	if got := g.Attempts("missing"); got != 0 {
		t.Errorf("Attempts for unknown id: got %d, want 0", got)
	}
}
