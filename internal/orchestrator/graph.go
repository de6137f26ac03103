// Package orchestrator compiles a user request into a task graph, executes it
// to completion or terminal failure, and aggregates the results. It owns all
// task state transitions; capability agents only ever return results.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
)

// Construction errors. A graph that fails validation never executes.
var (
	// ErrInvalidGraph is the base error for malformed task graphs.
	ErrInvalidGraph = errors.New("orchestrator: invalid task graph")

	// ErrGraphCycle is returned when the dependency edges form a cycle.
	ErrGraphCycle = errors.New("orchestrator: graph cycle detected")
)

// TaskState is the lifecycle state of one task.
type TaskState string

const (
	// StatePending means the task is waiting on unresolved dependencies.
	StatePending TaskState = "pending"
	// StateReady means every mandatory dependency succeeded; the task may run.
	StateReady TaskState = "ready"
	// StateRunning means a worker is executing the task.
	StateRunning TaskState = "running"
	// StateSucceeded is terminal success.
	StateSucceeded TaskState = "succeeded"
	// StateFailed is terminal failure (after retries, if retryable).
	StateFailed TaskState = "failed"
	// StateSkipped means the task never ran: a mandatory dependency failed,
	// or the request was cancelled.
	StateSkipped TaskState = "skipped"
)

// terminal reports whether s is a terminal state.
func (s TaskState) terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateSkipped
}

// Dep is one dependency edge. A mandatory dependency must succeed before the
// dependent runs; an optional dependency only has to reach a terminal state —
// the dependent then runs with or without its output.
type Dep struct {
	// ID is the task id depended on.
	ID string
	// Optional marks the dependency as non-blocking on failure.
	Optional bool
}

// TaskSpec declares one task of a graph.
type TaskSpec struct {
	// ID uniquely names the task within its graph.
	ID string
	// Kind selects the capability agent that handles the task.
	Kind agents.Kind
	// Input is the task payload.
	Input agents.Input
	// DependsOn lists the tasks whose outputs must be available first.
	DependsOn []Dep
}

// task is the mutable execution record for one TaskSpec. All access happens
// on the orchestrator's event loop goroutine; workers communicate through the
// results channel and never touch task state.
type task struct {
	spec       TaskSpec
	state      TaskState
	attempts   int
	result     agents.Result
	skipReason string
}

// Graph is a validated task DAG for one request. It is owned by exactly one
// orchestrator invocation and must not be reused.
type Graph struct {
	tasks map[string]*task
	// order preserves declaration order for deterministic scheduling scans.
	order []string
}

// NewGraph validates the specs and builds an executable Graph. It rejects
// empty graphs, duplicate ids, unknown dependency ids, self-loops, and cycles
// before any task runs.
func NewGraph(specs []TaskSpec) (*Graph, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no tasks", ErrInvalidGraph)
	}

	g := &Graph{tasks: make(map[string]*task, len(specs))}
	for _, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: task id is required", ErrInvalidGraph)
		}
		if _, dup := g.tasks[spec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrInvalidGraph, spec.ID)
		}
		g.tasks[spec.ID] = &task{spec: spec, state: StatePending}
		g.order = append(g.order, spec.ID)
	}

	for _, spec := range specs {
		for _, dep := range spec.DependsOn {
			if dep.ID == spec.ID {
				return nil, fmt.Errorf("%w: task %q depends on itself", ErrInvalidGraph, spec.ID)
			}
			if _, ok := g.tasks[dep.ID]; !ok {
				return nil, fmt.Errorf("%w: task %q depends on unknown task %q", ErrInvalidGraph, spec.ID, dep.ID)
			}
		}
	}

	if err := g.validateAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// validateAcyclic runs Kahn's algorithm; if any task survives with unresolved
// in-degree, the remainder contains a cycle.
func (g *Graph) validateAcyclic() error {
	indeg := make(map[string]int, len(g.tasks))
	dependents := make(map[string][]string, len(g.tasks))
	for id, t := range g.tasks {
		indeg[id] = len(t.spec.DependsOn)
		for _, dep := range t.spec.DependsOn {
			dependents[dep.ID] = append(dependents[dep.ID], id)
		}
	}

	queue := make([]string, 0, len(g.tasks))
	for _, id := range g.order {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	resolved := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		resolved++
		for _, dep := range dependents[id] {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if resolved != len(g.tasks) {
		var cyclic []string
		for _, id := range g.order {
			if indeg[id] > 0 {
				cyclic = append(cyclic, id)
			}
		}
		return fmt.Errorf("%w: involving tasks %v", ErrGraphCycle, cyclic)
	}
	return nil
}

// State returns the current state of the task with the given id. Intended for
// aggregation and tests; not safe to call while the graph is executing.
func (g *Graph) State(id string) (TaskState, bool) {
	t, ok := g.tasks[id]
	if !ok {
		return "", false
	}
	return t.state, true
}

// Attempts returns how many attempts the task with the given id consumed.
func (g *Graph) Attempts(id string) int {
	if t, ok := g.tasks[id]; ok {
		return t.attempts
	}
	return 0
}
