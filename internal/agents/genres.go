package agents

import (
	"sort"
	"strings"
)

// genreKeywords maps each genre to the description keywords that signal it.
// Used to categorize books whose source did not carry genre metadata.
var genreKeywords = map[string][]string{
	"fantasy":         {"fantasy", "magic", "dragons", "wizards", "mythical"},
	"science_fiction": {"sci-fi", "science fiction", "space", "future", "dystopian"},
	"mystery":         {"mystery", "detective", "crime", "thriller", "suspense"},
	"romance":         {"romance", "love", "relationship", "romantic", "passion"},
	"historical":      {"historical", "history", "period", "ancient", "medieval"},
	"biography":       {"biography", "memoir", "autobiography", "true story", "life story"},
	"self_help":       {"self-help", "personal development", "motivation", "productivity", "psychology"},
	"horror":          {"horror", "scary", "supernatural", "ghost", "terrifying"},
}

// CategorizeGenres assigns genres to a description by keyword match. Returns
// ["uncategorized"] when nothing matches.
func CategorizeGenres(description string) []string {
	lower := strings.ToLower(description)

	var assigned []string
	for genre, keywords := range genreKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				assigned = append(assigned, genre)
				break
			}
		}
	}
	if len(assigned) == 0 {
		return []string{"uncategorized"}
	}
	sort.Strings(assigned)
	return assigned
}
