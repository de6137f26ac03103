package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcde", 1},    // 5 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"),
		schema.UserMessage("hello world"),
	}
	got := EstimateMessages(msgs)
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7
	// Two messages: 14
	if got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_TrimContext_NoTrimNeeded(t *testing.T) {
	t.Parallel()
	fixed := []*schema.Message{schema.SystemMessage("sys")}
	docs := []string{"first book summary", "second book summary"}
	got := TrimContext(fixed, docs, DefaultMaxContextTokens)
	if len(got) != 2 {
		t.Errorf("want 2 docs, got %d", len(got))
	}
}

func Test_TrimContext_DropsLowestRanked(t *testing.T) {
	t.Parallel()
	// Each doc is 40 chars = 10 tokens. Fixed is empty.
	docs := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	// Budget of 25 fits two docs (20) but not three (30); the tail doc
	// (lowest relevance) must be the one dropped.
	got := TrimContext(nil, docs, 25)
	if len(got) != 2 {
		t.Fatalf("want 2 docs after trim, got %d", len(got))
	}
	if got[0][0] != 'a' || got[1][0] != 'b' {
		t.Errorf("wrong docs retained: %q, %q", got[0][:1], got[1][:1])
	}
}

func Test_TrimContext_EmptyDocs(t *testing.T) {
	t.Parallel()
	fixed := []*schema.Message{schema.SystemMessage("sys")}
	got := TrimContext(fixed, nil, DefaultMaxContextTokens)
	if len(got) != 0 {
		t.Errorf("want empty, got %d", len(got))
	}
}

func Test_TrimContext_AllDroppedWhenFixedExceedsBudget(t *testing.T) {
	t.Parallel()
	fixed := []*schema.Message{
		schema.SystemMessage(strings.Repeat("x", 4*7000)), // ~7000 tokens
	}
	docs := []string{"a", "b"}
	got := TrimContext(fixed, docs, 6000)
	if len(got) != 0 {
		t.Errorf("want 0 docs, got %d", len(got))
	}
}
