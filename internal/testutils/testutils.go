package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jimlind/announcecast/internal/config"
	"github.com/jimlind/announcecast/internal/core/domain"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/database"
)

// TestConfig creates a configuration suitable for testing.
func TestConfig() *config.Config {
	return &config.Config{
		DiscordBotToken: "test-bot-token",
		LogLevel:        "debug",
		ShutdownTimeout: time.Second,

		AnnouncerSettings: config.AnnouncerConfig{
			PollInterval:  10 * time.Millisecond,
			FetchTimeout:  time.Second,
			PostedHistory: 5,
			UserAgent:     "announcecast-test",
		},
	}
}

// TestDatabase opens a fresh in-memory store closed at test cleanup.
func TestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db := database.NewSQLiteDatabase()
	if err := db.Init(TestConfig()); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestPodcast builds a podcast for feedURL with episodes newest first.
func TestPodcast(feedURL, title string, guids ...string) *domain.Podcast {
	p := &domain.Podcast{
		Title: title,
		Feed:  feedURL,
		Link:  "https://example.com/" + title,
	}
	for _, guid := range guids {
		p.Episodes = append(p.Episodes, domain.Episode{
			GUID:  guid,
			Title: title + " " + guid,
			Link:  "https://example.com/" + title + "/" + guid,
		})
	}
	return p
}

// FakeFetcher implements domain.PodcastFetcher from a fixed table.
type FakeFetcher struct {
	mu       sync.Mutex
	podcasts map[string]*domain.Podcast
	errors   map[string]error
	calls    []string
}

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		podcasts: make(map[string]*domain.Podcast),
		errors:   make(map[string]error),
	}
}

// Set makes feedURL return p.
func (f *FakeFetcher) Set(p *domain.Podcast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.podcasts[p.Feed] = p
	delete(f.errors, p.Feed)
}

// Fail makes feedURL return err.
func (f *FakeFetcher) Fail(feedURL string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[feedURL] = err
}

func (f *FakeFetcher) Process(_ context.Context, feedURL string, episodeCount int) (*domain.Podcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, feedURL)

	if err, ok := f.errors[feedURL]; ok {
		return nil, err
	}
	p, ok := f.podcasts[feedURL]
	if !ok {
		return nil, apperrors.ErrFeedUnavailable
	}

	clone := *p
	if episodeCount < len(clone.Episodes) {
		clone.Episodes = clone.Episodes[:episodeCount]
	}
	return &clone, nil
}

// Calls returns every URL fetched so far.
func (f *FakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
