package agents

import (
	"context"
	"strings"
)

// Reading speeds in words per minute per complexity band.
const (
	readingSpeedLow    = 250 // easy books
	readingSpeedMedium = 200 // average complexity
	readingSpeedHigh   = 150 // complex books

	// wordsPerPage is the typical word count of a printed page.
	wordsPerPage = 300
)

// sentiment word lists used by the tone heuristic.
var (
	positiveWords = []string{
		"hope", "joy", "love", "triumph", "uplifting", "heartwarming",
		"inspiring", "redemption", "wonder", "delight", "charming", "funny",
	}
	negativeWords = []string{
		"dark", "death", "grief", "war", "tragedy", "loss", "haunting",
		"bleak", "terror", "brutal", "despair", "murder",
	}
)

// BookAnalysis is the analysis agent's payload: tone, themes, complexity, and
// an estimated reading time for one book.
type BookAnalysis struct {
	// Sentiment is the emotional tone ("hopeful", "dark", "neutral").
	Sentiment string `json:"sentiment"`
	// Themes lists the detected themes or genres.
	Themes []string `json:"themes"`
	// Complexity estimates reading difficulty in [0, 1].
	Complexity float64 `json:"complexity"`
	// ReadingTimeMinutes estimates time to read the whole book.
	ReadingTimeMinutes int `json:"reading_time_minutes"`
}

// AnalysisAgent derives sentiment, themes, complexity, and reading time from
// a book's description using lexical heuristics. It performs no I/O, so it
// has exactly one failure mode: invalid input.
type AnalysisAgent struct{}

// NewAnalysisAgent constructs an AnalysisAgent.
func NewAnalysisAgent() *AnalysisAgent { return &AnalysisAgent{} }

// Kind returns KindAnalysis.
func (a *AnalysisAgent) Kind() Kind { return KindAnalysis }

// Handle analyzes the book described by in.Title / in.Description / in.Pages.
// The payload is a BookAnalysis.
func (a *AnalysisAgent) Handle(_ context.Context, in Input, _ TaskContext) Result {
	if strings.TrimSpace(in.Title) == "" {
		return Fail(FailureAnalysisInputInvalid, "analysis requires a book title", false)
	}
	if strings.TrimSpace(in.Description) == "" {
		return Fail(FailureAnalysisInputInvalid, "analysis requires a book description", false)
	}

	complexity := estimateComplexity(in.Description)

	analysis := BookAnalysis{
		Sentiment:          estimateSentiment(in.Description),
		Themes:             CategorizeGenres(in.Description),
		Complexity:         complexity,
		ReadingTimeMinutes: estimateReadingTime(in.Description, in.Pages, complexity),
	}
	return Success(analysis)
}

// estimateSentiment scores the description against the sentiment lexicons.
func estimateSentiment(description string) string {
	lower := strings.ToLower(description)

	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return "hopeful"
	case neg > pos:
		return "dark"
	default:
		return "neutral"
	}
}

// estimateComplexity maps average word and sentence length onto [0, 1].
// Long words and long sentences both push the estimate up.
func estimateComplexity(description string) float64 {
	words := strings.Fields(description)
	if len(words) == 0 {
		return 0.5
	}

	totalChars := 0
	for _, w := range words {
		totalChars += len(w)
	}
	avgWordLen := float64(totalChars) / float64(len(words))

	sentences := 0
	for _, r := range description {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	avgSentenceLen := float64(len(words)) / float64(sentences)

	// Word length 4 → 0, 8 → 1; sentence length 8 words → 0, 30 → 1.
	wordScore := clamp01((avgWordLen - 4) / 4)
	sentenceScore := clamp01((avgSentenceLen - 8) / 22)

	return clamp01(0.6*wordScore + 0.4*sentenceScore)
}

// estimateReadingTime returns the estimated minutes to read the book. When
// the page count is unknown it extrapolates from the description length.
func estimateReadingTime(description string, pages int, complexity float64) int {
	if pages <= 0 {
		// Assume the book is ~75x longer than its description.
		estimatedWords := len(strings.Fields(description)) * 75
		pages = estimatedWords / wordsPerPage
		if pages == 0 {
			pages = 1
		}
	}

	speed := readingSpeedMedium
	switch {
	case complexity < 0.3:
		speed = readingSpeedLow
	case complexity >= 0.7:
		speed = readingSpeedHigh
	}

	return pages * wordsPerPage / speed
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
