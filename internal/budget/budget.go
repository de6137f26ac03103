// Package budget provides token budget estimation and retrieval-context
// trimming for the recommendation prompt. Because the assistant supports
// multiple LLM backends with different tokenizers, this package uses a
// conservative character-based heuristic: 1 token ≈ 4 characters (English
// prose). This deliberately under-estimates token counts to leave headroom
// for model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English; using 3 would be
	// more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models (Llama 3 8B)
	// while leaving room for the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimContext removes retrieved context documents from the end of docs (the
// lowest-ranked hits) until fixed + docs fits within maxTokens. fixed contains
// the messages that must not be trimmed (system prompt, user query).
//
// Returns the trimmed docs slice. If even an empty context exceeds the budget,
// the empty slice is returned — fixed messages are never dropped here; callers
// should warn separately if fixed alone exceeds the budget.
func TrimContext(fixed []*schema.Message, docs []string, maxTokens int) []string {
	if len(docs) == 0 {
		return docs
	}

	fixedTokens := EstimateMessages(fixed)

	total := fixedTokens
	for _, d := range docs {
		total += Estimate(d)
	}

	// Docs arrive ordered by descending relevance; drop from the tail so the
	// best matches survive.
	for len(docs) > 0 && total > maxTokens {
		total -= Estimate(docs[len(docs)-1])
		docs = docs[:len(docs)-1]
	}
	return docs
}
