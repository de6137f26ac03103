package agents

import (
	"context"
	"testing"
)

func TestAnalysisRequiresTitleAndDescription(t *testing.T) {
	t.Parallel()
	a := NewAnalysisAgent()

	cases := []struct {
		name string
		in   Input
	}{
		{"missing title", Input{Description: "some description"}},
		{"missing description", Input{Title: "Dune"}},
		{"blank title", Input{Title: "   ", Description: "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := a.Handle(context.Background(), tc.in, TaskContext{})
			if res.Succeeded() {
				t.Fatal("expected failure")
			}
			if res.Failure.Kind != FailureAnalysisInputInvalid {
				t.Errorf("failure kind: got %q, want %q", res.Failure.Kind, FailureAnalysisInputInvalid)
			}
			if res.Failure.Retryable {
				t.Error("invalid input must not be retryable")
			}
		})
	}
}

func TestAnalysisDetectsSentimentAndThemes(t *testing.T) {
	t.Parallel()
	a := NewAnalysisAgent()

	res := a.Handle(context.Background(), Input{
		Title:       "The House in the Cerulean Sea",
		Description: "A heartwarming and uplifting story about found family, full of hope, joy and a little magic.",
	}, TaskContext{})
	if !res.Succeeded() {
		t.Fatalf("Handle failed: %v", res.Failure)
	}

	analysis := res.Payload.(BookAnalysis)
	if analysis.Sentiment != "hopeful" {
		t.Errorf("sentiment: got %q, want %q", analysis.Sentiment, "hopeful")
	}
	hasFantasy := false
	for _, th := range analysis.Themes {
		if th == "fantasy" {
			hasFantasy = true
		}
	}
	if !hasFantasy {
		t.Errorf("themes missing fantasy: %v", analysis.Themes)
	}
}

func TestAnalysisDarkSentiment(t *testing.T) {
	t.Parallel()
	a := NewAnalysisAgent()

	res := a.Handle(context.Background(), Input{
		Title:       "Blood Meridian",
		Description: "A bleak and brutal tale of war, death and despair on the frontier.",
	}, TaskContext{})
	if !res.Succeeded() {
		t.Fatalf("Handle failed: %v", res.Failure)
	}
	if got := res.Payload.(BookAnalysis).Sentiment; got != "dark" {
		t.Errorf("sentiment: got %q, want %q", got, "dark")
	}
}

func TestAnalysisReadingTimeUsesPages(t *testing.T) {
	t.Parallel()
	a := NewAnalysisAgent()

	res := a.Handle(context.Background(), Input{
		Title:       "Short Book",
		Description: "Cats sit on mats. Dogs run in sun.",
		Pages:       200,
	}, TaskContext{})
	if !res.Succeeded() {
		t.Fatalf("Handle failed: %v", res.Failure)
	}

	analysis := res.Payload.(BookAnalysis)
	if analysis.Complexity >= 0.3 {
		t.Fatalf("expected low complexity for simple prose, got %v", analysis.Complexity)
	}
	// 200 pages * 300 words/page at 250 wpm = 240 minutes.
	if analysis.ReadingTimeMinutes != 240 {
		t.Errorf("reading time: got %d, want 240", analysis.ReadingTimeMinutes)
	}
}

func TestAnalysisReadingTimeEstimatedWithoutPages(t *testing.T) {
	t.Parallel()
	a := NewAnalysisAgent()

	res := a.Handle(context.Background(), Input{
		Title:       "No Page Count",
		Description: "A tale of things. It has words. Quite a few of them actually.",
	}, TaskContext{})
	if !res.Succeeded() {
		t.Fatalf("Handle failed: %v", res.Failure)
	}
	if got := res.Payload.(BookAnalysis).ReadingTimeMinutes; got <= 0 {
		t.Errorf("reading time should be positive without a page count, got %d", got)
	}
}
