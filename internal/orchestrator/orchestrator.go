package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
)

// RetryPolicy bounds automatic retries of retryable task failures.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget per task, first try included.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; it doubles per
	// further attempt.
	BaseDelay time.Duration
}

// DefaultRetryPolicy retries twice after the first failure with exponential
// backoff starting at 200ms.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}

// CapabilityStatus is the per-capability outcome reported in a Response.
type CapabilityStatus string

const (
	// StatusSucceeded means the capability produced a payload.
	StatusSucceeded CapabilityStatus = "succeeded"
	// StatusFailed means the capability failed terminally.
	StatusFailed CapabilityStatus = "failed"
	// StatusSkipped means the capability never ran.
	StatusSkipped CapabilityStatus = "skipped"
)

// CapabilityOutcome is the result of one requested capability: its status, a
// payload on success, and a human-readable reason otherwise — never a silent
// omission.
type CapabilityOutcome struct {
	// Status is succeeded, failed, or skipped.
	Status CapabilityStatus `json:"status"`
	// Payload is the success value; nil otherwise.
	Payload any `json:"payload,omitempty"`
	// Reason explains a failure or skip.
	Reason string `json:"reason,omitempty"`
	// Attempts is how many attempts the task consumed.
	Attempts int `json:"attempts,omitempty"`
}

// Request is one user request to the assistant.
type Request struct {
	// ID identifies the request in logs; assigned when empty.
	ID string
	// Query is the user's free-text request.
	Query string
	// Capabilities is the set of requested capability kinds.
	Capabilities []agents.Kind
	// K bounds result counts for retrieval, recommendation, and trends.
	K int
	// Genre optionally narrows trends discovery.
	Genre string
	// Title, Author, Description, Pages describe the book for analysis.
	Title       string
	Author      string
	Description string
	Pages       int
	// Message and Subject feed the notification capability.
	Message string
	Subject string
}

// Response aggregates the terminal outcome of every requested capability.
type Response struct {
	// ID echoes the request id.
	ID string `json:"id"`
	// Results maps each requested capability to its outcome.
	Results map[agents.Kind]CapabilityOutcome `json:"results"`
	// Partial is true when any requested capability did not succeed.
	Partial bool `json:"partial"`
}

// Orchestrator executes task graphs against a capability registry. It is
// stateless across requests: each Execute call owns its graph exclusively.
type Orchestrator struct {
	registry *agents.Registry
	retry    RetryPolicy
	log      *slog.Logger
	metrics  *orchestratorMetrics
}

// New constructs an Orchestrator. A zero-valued retry policy selects
// DefaultRetryPolicy.
func New(registry *agents.Registry, retry RetryPolicy, log *slog.Logger, reg prometheus.Registerer) *Orchestrator {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Orchestrator{
		registry: registry,
		retry:    retry,
		log:      log,
		metrics:  newOrchestratorMetrics(reg),
	}
}

// Execute compiles the request into a task graph, runs it, and aggregates the
// response. Only construction errors (malformed request, unknown capability)
// are returned as errors; agent failures surface in the Response.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	specs, err := compile(req)
	if err != nil {
		return nil, err
	}
	graph, err := NewGraph(specs)
	if err != nil {
		return nil, err
	}

	log := o.log.With(slog.String("request_id", req.ID))
	log.Info("orchestrator: executing request",
		slog.Int("tasks", len(specs)),
		slog.String("query", req.Query),
	)

	o.RunGraph(ctx, graph)

	resp := &Response{ID: req.ID, Results: make(map[agents.Kind]CapabilityOutcome, len(req.Capabilities))}
	for _, kind := range req.Capabilities {
		t := graph.tasks[string(kind)]
		resp.Results[kind] = outcomeOf(t)
		if t.state != StateSucceeded {
			resp.Partial = true
		}
	}

	log.Info("orchestrator: request complete", slog.Bool("partial", resp.Partial))
	return resp, nil
}

// compile maps a request onto the default task graph: one task per requested
// capability, plus an implicit retrieval task feeding recommendation when
// retrieval was not requested itself. Recommendation's retrieval dependency
// is mandatory here — a recommendation that silently ignores a broken catalog
// is worse than a skipped one. Degraded no-context recommendation remains
// available through a custom graph that omits the edge.
func compile(req Request) ([]TaskSpec, error) {
	if len(req.Capabilities) == 0 {
		return nil, fmt.Errorf("%w: no capabilities requested", ErrInvalidGraph)
	}

	requested := make(map[agents.Kind]bool, len(req.Capabilities))
	for _, kind := range req.Capabilities {
		switch kind {
		case agents.KindRetrieval, agents.KindRecommend, agents.KindAnalysis, agents.KindTrends, agents.KindNotify:
		default:
			return nil, fmt.Errorf("%w: unknown capability %q", ErrInvalidGraph, kind)
		}
		if requested[kind] {
			return nil, fmt.Errorf("%w: capability %q requested twice", ErrInvalidGraph, kind)
		}
		requested[kind] = true
	}

	input := agents.Input{
		Query:       req.Query,
		K:           req.K,
		Genre:       req.Genre,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Pages:       req.Pages,
		Message:     req.Message,
		Subject:     req.Subject,
	}

	var specs []TaskSpec
	if requested[agents.KindRecommend] && !requested[agents.KindRetrieval] {
		specs = append(specs, TaskSpec{ID: string(agents.KindRetrieval), Kind: agents.KindRetrieval, Input: input})
	}
	for _, kind := range req.Capabilities {
		spec := TaskSpec{ID: string(kind), Kind: kind, Input: input}
		if kind == agents.KindRecommend {
			spec.DependsOn = []Dep{{ID: string(agents.KindRetrieval)}}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// taskResult carries a worker's final result back to the event loop.
type taskResult struct {
	id       string
	attempts int
	result   agents.Result
}

// RunGraph executes the graph to quiescence: every task terminal, or
// cancellation observed and all in-flight work drained. Independent ready
// tasks run concurrently; task state is mutated only on this goroutine.
func (o *Orchestrator) RunGraph(ctx context.Context, g *Graph) {
	results := make(chan taskResult)
	inflight := 0
	cancelled := false

	for {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
		}

		if !cancelled {
			o.advance(g)
			for _, id := range g.order {
				t := g.tasks[id]
				if t.state != StateReady {
					continue
				}
				t.state = StateRunning
				inflight++
				go o.worker(ctx, t.spec, upstreamContext(g, t.spec), results)
			}
		}

		if inflight == 0 {
			break
		}

		if cancelled {
			o.apply(g, <-results)
			inflight--
			continue
		}
		select {
		case r := <-results:
			o.apply(g, r)
			inflight--
		case <-ctx.Done():
			cancelled = true
		}
	}

	// Whatever never reached a terminal state — cancellation, or dependents
	// of cancelled tasks — is skipped, with the reason recorded.
	for _, id := range g.order {
		t := g.tasks[id]
		if !t.state.terminal() {
			t.state = StateSkipped
			t.skipReason = "cancelled before execution"
			o.metrics.tasksTotal.WithLabelValues(string(t.spec.Kind), string(StateSkipped)).Inc()
			o.log.Info("orchestrator: task skipped",
				slog.String("task", id),
				slog.String("reason", t.skipReason),
			)
		}
	}
}

// advance performs all Pending transitions currently possible: Pending→Ready
// when every mandatory dependency succeeded (and optional dependencies are
// terminal), Pending→Skipped when a mandatory dependency terminally failed or
// was skipped. Repeats until a fixpoint so skips propagate transitively.
func (o *Orchestrator) advance(g *Graph) {
	for changed := true; changed; {
		changed = false
		for _, id := range g.order {
			t := g.tasks[id]
			if t.state != StatePending {
				continue
			}
			ready := true
			for _, dep := range t.spec.DependsOn {
				dt := g.tasks[dep.ID]
				if dep.Optional {
					if !dt.state.terminal() {
						ready = false
					}
					continue
				}
				switch dt.state {
				case StateSucceeded:
				case StateFailed, StateSkipped:
					t.state = StateSkipped
					t.skipReason = fmt.Sprintf("dependency %q %s: %s", dep.ID, dt.state, dependencyReason(dt))
					o.metrics.tasksTotal.WithLabelValues(string(t.spec.Kind), string(StateSkipped)).Inc()
					o.log.Info("orchestrator: task skipped",
						slog.String("task", id),
						slog.String("reason", t.skipReason),
					)
					changed = true
					ready = false
				default:
					ready = false
				}
				if t.state == StateSkipped {
					break
				}
			}
			if ready && t.state == StatePending {
				t.state = StateReady
				changed = true
			}
		}
	}
}

// dependencyReason extracts the human-readable reason a dependency is in a
// non-success terminal state.
func dependencyReason(t *task) string {
	if t.skipReason != "" {
		return t.skipReason
	}
	if t.result.Failure != nil {
		return t.result.Failure.Error()
	}
	return "no reason recorded"
}

// upstreamContext snapshots the results of the task's dependencies. Called on
// the event loop before dispatch, so the dependent never observes a pre-final
// dependency state.
func upstreamContext(g *Graph, spec TaskSpec) agents.TaskContext {
	if len(spec.DependsOn) == 0 {
		return agents.TaskContext{}
	}
	upstream := make(map[agents.Kind]agents.Result, len(spec.DependsOn))
	for _, dep := range spec.DependsOn {
		dt := g.tasks[dep.ID]
		if dt.state == StateSucceeded {
			upstream[dt.spec.Kind] = dt.result
		}
	}
	return agents.TaskContext{Upstream: upstream}
}

// apply records a worker's final result as the task's terminal state.
func (o *Orchestrator) apply(g *Graph, r taskResult) {
	t := g.tasks[r.id]
	t.attempts = r.attempts
	t.result = r.result
	if r.result.Succeeded() {
		t.state = StateSucceeded
	} else {
		t.state = StateFailed
	}
	o.metrics.tasksTotal.WithLabelValues(string(t.spec.Kind), string(t.state)).Inc()
	o.log.Info("orchestrator: task finished",
		slog.String("task", r.id),
		slog.String("state", string(t.state)),
		slog.Int("attempts", r.attempts),
	)
}

// worker runs one task to its final result, retrying retryable failures with
// exponential backoff. Retries happen inside the worker: a task never returns
// to Pending. The worker honors ctx between attempts and relies on the agent
// honoring it within attempts.
func (o *Orchestrator) worker(ctx context.Context, spec TaskSpec, tc agents.TaskContext, results chan<- taskResult) {
	capability, err := o.registry.Get(spec.Kind)
	if err != nil {
		results <- taskResult{id: spec.ID, attempts: 0, result: agents.Fail(
			agents.FailureInternal, err.Error(), false,
		)}
		return
	}

	var res agents.Result
	attempts := 0
	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		attempts = attempt
		start := time.Now()
		res = capability.Handle(ctx, spec.Input, tc)
		o.metrics.taskDurationSeconds.WithLabelValues(string(spec.Kind)).Observe(time.Since(start).Seconds())

		if res.Succeeded() || !res.Failure.Retryable || attempt == o.retry.MaxAttempts {
			break
		}

		o.metrics.retriesTotal.WithLabelValues(string(spec.Kind)).Inc()
		backoff := o.retry.BaseDelay << (attempt - 1)
		o.log.Warn("orchestrator: task failed, retrying",
			slog.String("task", spec.ID),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("reason", res.Failure.Error()),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			results <- taskResult{id: spec.ID, attempts: attempts, result: res}
			return
		}
	}

	results <- taskResult{id: spec.ID, attempts: attempts, result: res}
}

// outcomeOf converts a terminal task into its response outcome.
func outcomeOf(t *task) CapabilityOutcome {
	switch t.state {
	case StateSucceeded:
		return CapabilityOutcome{Status: StatusSucceeded, Payload: t.result.Payload, Attempts: t.attempts}
	case StateSkipped:
		return CapabilityOutcome{Status: StatusSkipped, Reason: t.skipReason}
	default:
		reason := "task did not run"
		if t.result.Failure != nil {
			reason = t.result.Failure.Error()
		}
		return CapabilityOutcome{Status: StatusFailed, Reason: reason, Attempts: t.attempts}
	}
}
