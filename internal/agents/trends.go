package agents

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bookmind-ai/bookmind-go/internal/version"
)

// Goodreads shelf RSS feeds used for community trend discovery.
var (
	defaultTrendFeeds = []string{
		"https://www.goodreads.com/shelf/show/currently-reading.rss",
		"https://www.goodreads.com/shelf/show/popular.rss",
		"https://www.goodreads.com/shelf/show/new-releases.rss",
	}

	genreTrendFeeds = map[string]string{
		"fantasy":         "https://www.goodreads.com/shelf/show/fantasy.rss",
		"science_fiction": "https://www.goodreads.com/shelf/show/science-fiction.rss",
		"mystery":         "https://www.goodreads.com/shelf/show/mystery.rss",
		"romance":         "https://www.goodreads.com/shelf/show/romance.rss",
		"historical":      "https://www.goodreads.com/shelf/show/historical-fiction.rss",
		"biography":       "https://www.goodreads.com/shelf/show/biography.rss",
		"self_help":       "https://www.goodreads.com/shelf/show/self-help.rss",
		"horror":          "https://www.goodreads.com/shelf/show/horror.rss",
	}
)

// TrendingBook is one book discovered from a community feed.
type TrendingBook struct {
	// Title is the book title.
	Title string `json:"title"`
	// Author is the author name parsed from the feed entry.
	Author string `json:"author"`
	// Description is the entry description with markup stripped.
	Description string `json:"description,omitempty"`
	// ISBN is extracted from the entry link or description when present.
	ISBN string `json:"isbn,omitempty"`
	// Link is the entry's URL.
	Link string `json:"link,omitempty"`
}

// TrendsAgent discovers trending books from community RSS feeds.
type TrendsAgent struct {
	// baseURL overrides the feed host; empty means the public Goodreads
	// feeds. Tests point it at a local server.
	baseURL string
	client  *http.Client
}

// NewTrendsAgent constructs a TrendsAgent. baseURL overrides the feed host
// when non-empty (the path of the default feeds is appended to it).
func NewTrendsAgent(baseURL string) *TrendsAgent {
	return &TrendsAgent{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Kind returns KindTrends.
func (a *TrendsAgent) Kind() Kind { return KindTrends }

// Handle fetches trending books, optionally narrowed by in.Genre. The payload
// is a []TrendingBook deduplicated by ISBN and title+author, capped at in.K
// (default 10).
func (a *TrendsAgent) Handle(ctx context.Context, in Input, _ TaskContext) Result {
	limit := in.K
	if limit <= 0 {
		limit = 10
	}

	feeds := defaultTrendFeeds
	if in.Genre != "" {
		feed, ok := genreTrendFeeds[in.Genre]
		if !ok {
			// SourceUnavailable is retryable elsewhere, but no retry can
			// conjure a shelf feed for a genre we don't track. Terminal.
			return Failf(FailureSourceUnavailable, false, "no feed for genre %q", in.Genre)
		}
		feeds = []string{feed}
	}

	var books []TrendingBook
	var lastErr error
	for _, feed := range feeds {
		entries, err := a.fetchFeed(ctx, a.rewrite(feed))
		if err != nil {
			lastErr = err
			continue
		}
		books = append(books, entries...)
		if len(books) >= limit {
			break
		}
	}

	if len(books) == 0 {
		if lastErr != nil {
			return Failf(FailureSourceUnavailable, true, "all trend feeds failed: %v", lastErr)
		}
		return Fail(FailureSourceUnavailable, "trend feeds returned no entries", true)
	}

	books = dedupeTrending(books, limit)
	return Success(books)
}

// rewrite points a feed URL at the configured base URL, keeping the path.
func (a *TrendsAgent) rewrite(feedURL string) string {
	if a.baseURL == "" {
		return feedURL
	}
	if i := strings.Index(feedURL, "/shelf/"); i >= 0 {
		return a.baseURL + feedURL[i:]
	}
	return a.baseURL
}

// rssFeed mirrors the subset of RSS 2.0 the Goodreads shelf feeds use.
type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Summary     string `xml:"summary"`
}

// fetchFeed downloads and parses one RSS feed into TrendingBooks.
func (a *TrendsAgent) fetchFeed(ctx context.Context, url string) ([]TrendingBook, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	books := make([]TrendingBook, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		books = append(books, bookFromEntry(item))
	}
	return books, nil
}

var (
	titleByAuthorRe = regexp.MustCompile(`(.*) by (.*)`)
	isbnRe          = regexp.MustCompile(`[0-9]{13}|[0-9]{10}`)
	isbnLabelledRe  = regexp.MustCompile(`ISBN[-: ]?([0-9]{13}|[0-9]{10})`)
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
)

// bookFromEntry parses one feed item. Goodreads titles follow the form
// "Book Title by Author Name".
func bookFromEntry(item rssItem) TrendingBook {
	book := TrendingBook{
		Title:  strings.TrimSpace(item.Title),
		Author: "Unknown Author",
		Link:   strings.TrimSpace(item.Link),
	}
	if m := titleByAuthorRe.FindStringSubmatch(item.Title); m != nil {
		book.Title = strings.TrimSpace(m[1])
		book.Author = strings.TrimSpace(m[2])
	}

	desc := item.Description
	if desc == "" {
		desc = item.Summary
	}
	book.Description = strings.TrimSpace(htmlTagRe.ReplaceAllString(desc, ""))

	if strings.Contains(book.Link, "goodreads.com") {
		book.ISBN = isbnRe.FindString(book.Link)
	}
	if book.ISBN == "" && book.Description != "" {
		if m := isbnLabelledRe.FindStringSubmatch(book.Description); m != nil {
			book.ISBN = m[1]
		}
	}
	return book
}

// dedupeTrending drops duplicate books by ISBN and by title+author, keeping
// first occurrence (feed order), capped at limit.
func dedupeTrending(books []TrendingBook, limit int) []TrendingBook {
	unique := make([]TrendingBook, 0, limit)
	seenISBN := make(map[string]bool)
	seenTitleAuthor := make(map[string]bool)

	for _, b := range books {
		key := strings.ToLower(b.Title + " by " + b.Author)
		if b.ISBN != "" && seenISBN[b.ISBN] {
			continue
		}
		if seenTitleAuthor[key] {
			continue
		}
		unique = append(unique, b)
		if b.ISBN != "" {
			seenISBN[b.ISBN] = true
		}
		seenTitleAuthor[key] = true
		if len(unique) >= limit {
			break
		}
	}
	return unique
}
