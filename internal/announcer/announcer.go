package announcer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jimlind/announcecast/internal/config"
	"github.com/jimlind/announcecast/internal/core/domain"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/jimlind/announcecast/internal/podcast"
)

// Sender posts embeds to a channel. discord.Responder satisfies it.
type Sender interface {
	SendEmbeds(channelID discord.ChannelID, embeds ...discord.Embed) (*discord.Message, error)
}

// Announcer polls every followed feed and posts episodes it has not posted
// before to the channels following that feed.
type Announcer struct {
	store    domain.FeedStore
	fetcher  domain.PodcastFetcher
	interval time.Duration

	running atomic.Bool
	once    sync.Once

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store domain.FeedStore, fetcher domain.PodcastFetcher, settings config.AnnouncerConfig) *Announcer {
	return &Announcer{
		store:    store,
		fetcher:  fetcher,
		interval: settings.PollInterval,
	}
}

// Start launches the poll loop in the background the first time it is called.
// Later calls are ignored.
func (a *Announcer) Start(ctx context.Context, sender Sender) {
	a.once.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})

		a.mu.Lock()
		a.cancel = cancel
		a.done = done
		a.mu.Unlock()

		go func() {
			defer close(done)
			a.Run(runCtx, sender)
		}()
	})
}

func (*Announcer) Name() string { return "announcer" }

// Shutdown stops the loop started by Start and waits for an in-flight pass
// to finish, or for ctx to expire.
func (a *Announcer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("announcer did not stop: %w", ctx.Err())
	}
}

// Run polls until ctx is cancelled.
func (a *Announcer) Run(ctx context.Context, sender Sender) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	logutils.Log.WithField("interval", a.interval.String()).Info("Announcer started")
	for {
		select {
		case <-ctx.Done():
			logutils.Log.Info("Announcer stopped")
			return
		case <-ticker.C:
			a.Tick(ctx, sender)
		}
	}
}

// Tick runs one pass over all feeds. It returns false without doing anything
// while another pass is still running.
func (a *Announcer) Tick(ctx context.Context, sender Sender) bool {
	if !a.running.CompareAndSwap(false, true) {
		logutils.Log.Debug("Previous announcer pass still running, skipping")
		return false
	}
	defer a.running.Store(false)

	feeds := a.store.GetPostedFeeds()
	sort.Strings(feeds)
	for _, feedURL := range feeds {
		if ctx.Err() != nil {
			return true
		}
		a.processFeed(ctx, sender, feedURL)
	}
	return true
}

func (a *Announcer) processFeed(ctx context.Context, sender Sender, feedURL string) {
	log := logutils.Log.WithField("feed", feedURL)

	show, err := a.fetcher.Process(ctx, feedURL, 1)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && !domainErr.IsRetryable() {
			log.WithError(err).Error("Feed cannot be processed")
			return
		}
		log.WithError(err).Warn("Failed to fetch feed, retrying next pass")
		return
	}
	if ctx.Err() != nil {
		return
	}

	episode := show.LatestEpisode()
	if episode == nil || episode.GUID == "" {
		log.Debug("Feed has no episodes")
		return
	}
	if slices.Contains(a.store.GetPostedFromURL(feedURL), episode.GUID) {
		return
	}

	channels, err := a.store.GetChannelsByFeedURL(ctx, feedURL)
	if err != nil {
		log.WithError(err).Error("Failed to load channels for feed")
		return
	}

	embed := podcast.EpisodeEmbed(show, episode)
	for _, channelID := range channels {
		id, err := discord.ParseSnowflake(channelID)
		if err != nil {
			log.WithError(err).WithField("channel", channelID).Warn("Skipping malformed channel id")
			continue
		}
		if _, err := sender.SendEmbeds(discord.ChannelID(id), embed); err != nil {
			log.WithError(err).WithField("channel", channelID).Warn("Failed to post episode")
		}
	}

	if err := a.store.UpdatePostedData(ctx, feedURL, episode.GUID); err != nil {
		log.WithError(err).Error("Failed to record posted episode")
		return
	}
	log.WithFields(map[string]any{
		"guid":     episode.GUID,
		"channels": len(channels),
	}).Info("Announced new episode")
}
