package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/bookmind-ai/bookmind-go/internal/budget"
)

// recommendSystemPrompt instructs the model to answer with a strict JSON
// array so the response can be parsed into Recommendation values.
const recommendSystemPrompt = `You are a book recommendation expert. When a user asks for book recommendations,
provide 3-5 relevant book suggestions in JSON format. Each book should include:

- title (string): The book title
- author (string): The book author
- description (string): A brief description of the book
- isbn (string, optional): ISBN if known
- genres (array of strings): Book genres
- reasoning (string): Why this book matches the user's interests

When a CONTEXT section with books from the user's catalog is provided, prefer
recommending books similar to those and ground your reasoning in them.

Respond with only a JSON array of books. Format the response like:
` + "```json" + `
[
  {
    "title": "Book Title",
    "author": "Book Author",
    "description": "Book description...",
    "isbn": "1234567890",
    "genres": ["Fantasy", "Adventure"],
    "reasoning": "This book matches your interest in..."
  }
]
` + "```"

// Recommendation is one generated book suggestion.
type Recommendation struct {
	// Title is the recommended book's title.
	Title string `json:"title"`
	// Author is the book's author.
	Author string `json:"author"`
	// Description is a short description of the book.
	Description string `json:"description"`
	// ISBN is the book's ISBN when the model knows it.
	ISBN string `json:"isbn,omitempty"`
	// Genres lists the book's genres.
	Genres []string `json:"genres"`
	// Reasoning explains why the book matches the request.
	Reasoning string `json:"reasoning"`
	// Relevance ranks the recommendation, descending from 1.0.
	Relevance float32 `json:"relevance"`
}

// RecommendAgent generates personalized recommendations with an LLM, grounded
// in retrieval context when its retrieval dependency ran. Without context it
// still answers, degraded to the model's own knowledge.
type RecommendAgent struct {
	// chat is the LLM backend.
	chat model.BaseChatModel
	// maxContextTokens bounds the prompt size; retrieval context is trimmed
	// lowest-ranked-first to fit.
	maxContextTokens int
}

// NewRecommendAgent constructs a RecommendAgent. maxContextTokens <= 0 selects
// budget.DefaultMaxContextTokens.
func NewRecommendAgent(chat model.BaseChatModel, maxContextTokens int) *RecommendAgent {
	if maxContextTokens <= 0 {
		maxContextTokens = budget.DefaultMaxContextTokens
	}
	return &RecommendAgent{chat: chat, maxContextTokens: maxContextTokens}
}

// Kind returns KindRecommend.
func (a *RecommendAgent) Kind() Kind { return KindRecommend }

// Handle generates recommendations for in.Query. The payload is a
// []Recommendation ordered by descending relevance.
func (a *RecommendAgent) Handle(ctx context.Context, in Input, tc TaskContext) Result {
	messages := a.buildMessages(in, tc)

	resp, err := a.chat.Generate(ctx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failf(FailureGenerationTimeout, true, "generation timed out: %v", err)
		}
		if errors.Is(err, context.Canceled) {
			return Failf(FailureGenerationTimeout, false, "generation cancelled: %v", err)
		}
		// Transport-level failures are transient; let the orchestrator retry.
		return Failf(FailureGenerationTimeout, true, "generation failed: %v", err)
	}

	recs, err := parseRecommendations(resp.Content)
	if err != nil {
		return Failf(FailureGenerationRejected, false, "model output unusable: %v", err)
	}
	if len(recs) == 0 {
		return Fail(FailureGenerationRejected, "model returned no recommendations", false)
	}

	limit := in.K
	if limit <= 0 || limit > len(recs) {
		limit = len(recs)
	}
	recs = recs[:limit]

	for i := range recs {
		if len(recs[i].Genres) == 0 {
			recs[i].Genres = CategorizeGenres(recs[i].Description)
		}
		recs[i].Relevance = 1.0 - float32(i)*0.1
	}

	return Success(recs)
}

// buildMessages assembles the chat messages, folding in retrieval context
// trimmed to the token budget.
func (a *RecommendAgent) buildMessages(in Input, tc TaskContext) []*schema.Message {
	userMsg := fmt.Sprintf(
		"I'm looking for book recommendations. Here's what I'm interested in:\n%s\n\nPlease recommend books that match my interests.",
		in.Query,
	)

	fixed := []*schema.Message{
		schema.SystemMessage(recommendSystemPrompt),
		schema.UserMessage(userMsg),
	}

	books, ok := tc.Retrieval()
	if !ok || len(books) == 0 {
		return fixed
	}

	docs := make([]string, 0, len(books))
	for _, sb := range books {
		docs = append(docs, fmt.Sprintf("- %s (similarity %.2f)", sb.Book.EmbeddingText(), sb.Score))
	}
	docs = budget.TrimContext(fixed, docs, a.maxContextTokens)
	if len(docs) == 0 {
		return fixed
	}

	contextMsg := "CONTEXT — books from the user's catalog most similar to the request:\n" +
		strings.Join(docs, "\n")

	return []*schema.Message{
		fixed[0],
		schema.SystemMessage(contextMsg),
		fixed[1],
	}
}

var (
	fencedJSONRe = regexp.MustCompile("```(?:json)?\\n([\\s\\S]*?)\\n```")
	bareArrayRe  = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

// parseRecommendations extracts the JSON array from a model response that may
// wrap it in a fenced code block or surround it with prose.
func parseRecommendations(response string) ([]Recommendation, error) {
	jsonStr := ""
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		jsonStr = m[1]
	} else if m := bareArrayRe.FindString(response); m != "" {
		jsonStr = m
	} else {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var recs []Recommendation
	if err := json.Unmarshal([]byte(jsonStr), &recs); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return recs, nil
}
