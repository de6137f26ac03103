// Package agents defines the capability agents of the assistant and the
// uniform contract they share. Each agent is a stateless handler: it receives
// an input payload plus the results of the upstream tasks it depends on, and
// returns a typed success or a typed failure. Agents never mutate orchestration
// state — state transitions belong to the orchestrator.
package agents

import (
	"context"
	"fmt"

	"github.com/bookmind-ai/bookmind-go/internal/rag"
)

// Kind identifies a capability agent. The set is closed: the orchestrator
// resolves handlers through a registry keyed on Kind, never by type inspection.
type Kind string

const (
	// KindRetrieval performs semantic search over the book index.
	KindRetrieval Kind = "retrieval"
	// KindRecommend generates personalized book recommendations.
	KindRecommend Kind = "recommend"
	// KindAnalysis extracts sentiment, themes, complexity, and reading time.
	KindAnalysis Kind = "analysis"
	// KindTrends discovers trending books from community feeds.
	KindTrends Kind = "trends"
	// KindNotify delivers a push notification.
	KindNotify Kind = "notify"
)

// FailureKind classifies agent failures so the orchestrator and callers can
// act on them without parsing messages.
type FailureKind string

const (
	// FailureGenerationTimeout means the LLM call timed out or hit a
	// transient transport error. Retryable.
	FailureGenerationTimeout FailureKind = "GenerationTimeout"
	// FailureGenerationRejected means the LLM responded but its output was
	// unusable. Not retryable — the same prompt yields the same refusal.
	FailureGenerationRejected FailureKind = "GenerationRejected"
	// FailureAnalysisInputInvalid means the analysis input was missing
	// required fields. Not retryable.
	FailureAnalysisInputInvalid FailureKind = "AnalysisInputInvalid"
	// FailureSourceUnavailable means a community feed could not be fetched.
	// Retryable.
	FailureSourceUnavailable FailureKind = "SourceUnavailable"
	// FailureDeliveryFailed means the notification channel rejected or
	// dropped the message. Retryable with bounded attempts.
	FailureDeliveryFailed FailureKind = "DeliveryFailed"
	// FailureEmbeddingUnavailable means the embedding provider could not
	// produce a vector. Retryable.
	FailureEmbeddingUnavailable FailureKind = "EmbeddingUnavailable"
	// FailureIndexError means the vector index rejected the operation
	// (dimension mismatch or similar configuration error). Not retryable.
	FailureIndexError FailureKind = "IndexError"
	// FailureInternal means the task could not run at all, e.g. no agent is
	// registered for its kind. Not retryable.
	FailureInternal FailureKind = "Internal"
)

// Failure describes a typed agent failure.
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`
	// Message is a human-readable reason.
	Message string `json:"message"`
	// Retryable indicates whether the orchestrator may retry the task.
	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the tagged union every agent returns: a success payload or a
// typed failure, never both.
type Result struct {
	// Payload is the success value; nil when the result is a failure.
	Payload any
	// Failure is the typed failure; nil when the result is a success.
	Failure *Failure
}

// Succeeded reports whether the result is a success.
func (r Result) Succeeded() bool {
	return r.Failure == nil
}

// Success wraps a payload in a successful Result.
func Success(payload any) Result {
	return Result{Payload: payload}
}

// Fail constructs a failed Result.
func Fail(kind FailureKind, message string, retryable bool) Result {
	return Result{Failure: &Failure{Kind: kind, Message: message, Retryable: retryable}}
}

// Failf constructs a failed Result with a formatted message.
func Failf(kind FailureKind, retryable bool, format string, args ...any) Result {
	return Fail(kind, fmt.Sprintf(format, args...), retryable)
}

// Input is the flat task payload passed to every agent. Agents read only the
// fields relevant to their kind.
type Input struct {
	// Query is the user's free-text request (retrieval, recommend).
	Query string
	// K bounds the number of results (retrieval, recommend, trends).
	K int
	// Genre optionally narrows trends discovery to one genre.
	Genre string
	// Title, Author, Description, Pages describe the book under analysis.
	Title       string
	Author      string
	Description string
	Pages       int
	// Message is the notification body (notify).
	Message string
	// Subject is the notification title (notify).
	Subject string
}

// TaskContext carries the results of upstream tasks the agent declared a
// dependency on. It is read-only from the agent's perspective.
type TaskContext struct {
	// Upstream maps each upstream agent kind to its result.
	Upstream map[Kind]Result
}

// Retrieval returns the upstream retrieval result, if present and successful.
func (c TaskContext) Retrieval() ([]rag.ScoredBook, bool) {
	res, ok := c.Upstream[KindRetrieval]
	if !ok || !res.Succeeded() {
		return nil, false
	}
	books, ok := res.Payload.([]rag.ScoredBook)
	return books, ok
}

// Capability is the uniform contract every agent implements. Handle must be
// safe for concurrent use and must honor ctx cancellation at every suspension
// point (network or model I/O).
type Capability interface {
	// Kind returns the agent's kind.
	Kind() Kind
	// Handle executes the task and returns a typed result.
	Handle(ctx context.Context, in Input, tc TaskContext) Result
}

// Registry resolves capability agents by kind.
type Registry struct {
	handlers map[Kind]Capability
}

// NewRegistry constructs a Registry from the given agents. Duplicate kinds
// are a programming error and cause an error return.
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{handlers: make(map[Kind]Capability, len(caps))}
	for _, c := range caps {
		if _, dup := r.handlers[c.Kind()]; dup {
			return nil, fmt.Errorf("agents: duplicate capability %q", c.Kind())
		}
		r.handlers[c.Kind()] = c
	}
	return r, nil
}

// Get returns the agent registered for kind, or an error naming the kind.
func (r *Registry) Get(kind Kind) (Capability, error) {
	c, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("agents: no capability registered for kind %q", kind)
	}
	return c, nil
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
