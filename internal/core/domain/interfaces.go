package domain

import (
	"context"
)

// FeedStore keeps which channels follow which feeds and which episodes were
// already announced.
type FeedStore interface {
	AddFeed(ctx context.Context, podcast *Podcast, channelID string) (*Feed, error)
	RemoveFeed(ctx context.Context, feedID, channelID string) error
	GetFeedsByChannelID(ctx context.Context, channelID string) ([]Feed, error)
	GetChannelsByFeedURL(ctx context.Context, feedURL string) ([]string, error)
	GetFeedByID(ctx context.Context, feedID string) (*Feed, error)
	GetPostedFeeds() []string
	GetPostedFromURL(feedURL string) []string
	UpdatePostedData(ctx context.Context, feedURL, guid string) error
	GetFeedCount() int
}

// PodcastFetcher downloads and parses a feed, keeping at most episodeCount
// episodes.
type PodcastFetcher interface {
	Process(ctx context.Context, feedURL string, episodeCount int) (*Podcast, error)
}
