package ingestion

import (
	"testing"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      catalog.BookRecord
		wantErr bool
		id      string
		author  string
		genre   string
	}{
		{
			name:    "missing title rejected",
			in:      catalog.BookRecord{Author: "Frank Herbert"},
			wantErr: true,
		},
		{
			name:    "whitespace title rejected",
			in:      catalog.BookRecord{Title: "   "},
			wantErr: true,
		},
		{
			name:   "explicit id and genre preserved",
			in:     catalog.BookRecord{ID: "9780441013593", Title: "Dune", Author: "Frank Herbert", Metadata: map[string]string{"genre": "science_fiction"}},
			id:     "9780441013593",
			author: "Frank Herbert",
			genre:  "science_fiction",
		},
		{
			name:   "missing author defaults",
			in:     catalog.BookRecord{ID: "x", Title: "Beowulf"},
			id:     "x",
			author: "Unknown",
			genre:  "uncategorized",
		},
		{
			name:   "genre inferred from description",
			in:     catalog.BookRecord{ID: "x", Title: "The Hobbit", Author: "J.R.R. Tolkien", Description: "A fantasy adventure with dragons."},
			id:     "x",
			author: "J.R.R. Tolkien",
			genre:  "fantasy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := normalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("normalize should have failed")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got.ID != tt.id {
				t.Errorf("id: got %q, want %q", got.ID, tt.id)
			}
			if got.Author != tt.author {
				t.Errorf("author: got %q, want %q", got.Author, tt.author)
			}
			if got.Metadata["genre"] != tt.genre {
				t.Errorf("genre: got %q, want %q", got.Metadata["genre"], tt.genre)
			}
		})
	}
}

func TestRecordIDIsDeterministicAndCaseInsensitive(t *testing.T) {
	t.Parallel()

	a := recordID("Dune", "Frank Herbert")
	b := recordID("dune", "FRANK HERBERT")
	if a != b {
		t.Errorf("ids differ for case variants: %q vs %q", a, b)
	}
	if c := recordID("Dune Messiah", "Frank Herbert"); c == a {
		t.Error("distinct books should get distinct ids")
	}
}
