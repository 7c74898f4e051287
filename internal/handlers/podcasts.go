package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jimlind/announcecast/internal/core/domain"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/jimlind/announcecast/internal/podcast"
)

// normalizeFeedURL validates raw as an absolute http(s) URL and returns its
// normalized form.
func normalizeFeedURL(raw string) (string, error) {
	if raw == "" {
		return "", apperrors.ErrInvalidInput
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Errorf("not a feed url: %q", raw)).
			WithUserMessage("Please give the full http(s) URL of a podcast RSS feed.")
	}
	normalized, err := purell.NormalizeURLString(raw, purell.FlagsSafe)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	return normalized, nil
}

func (r *Router) follow(ctx context.Context, c *commandContext) (*reply, error) {
	feedURL, err := normalizeFeedURL(c.option(optionURL))
	if err != nil {
		return nil, err
	}

	show, err := r.fetcher.Process(ctx, feedURL, 1)
	if err != nil {
		return nil, err
	}
	show.Feed = feedURL

	feed, err := r.store.AddFeed(ctx, show, c.channelID)
	if err != nil {
		return nil, err
	}

	logutils.Log.WithFields(map[string]any{
		"feed":    feedURL,
		"feed_id": feed.ID,
		"channel": c.channelID,
	}).Info("Channel followed feed")

	return &reply{embeds: []discord.Embed{podcast.ShowEmbed(show, feed.ID, "Now following ")}}, nil
}

func (r *Router) unfollow(ctx context.Context, c *commandContext) (*reply, error) {
	feed, err := r.followedFeed(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := r.store.RemoveFeed(ctx, feed.ID, c.channelID); err != nil {
		return nil, err
	}

	logutils.Log.WithFields(map[string]any{
		"feed_id": feed.ID,
		"channel": c.channelID,
	}).Info("Channel unfollowed feed")

	return &reply{content: fmt.Sprintf("Unfollowed **%s**.", displayTitle(feed))}, nil
}

func (r *Router) following(ctx context.Context, c *commandContext) (*reply, error) {
	feeds, err := r.store.GetFeedsByChannelID(ctx, c.channelID)
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		return &reply{content: "This channel isn't following any podcasts yet. Try `/follow`.", ephemeral: true}, nil
	}

	var sb strings.Builder
	sb.WriteString("This channel follows:\n")
	for i := range feeds {
		fmt.Fprintf(&sb, "`%s` %s\n", feeds[i].ID, displayTitle(&feeds[i]))
	}
	return &reply{content: sb.String()}, nil
}

func (r *Router) latest(ctx context.Context, c *commandContext) (*reply, error) {
	feed, err := r.followedFeed(ctx, c)
	if err != nil {
		return nil, err
	}

	show, err := r.fetcher.Process(ctx, feed.URL, 1)
	if err != nil {
		return nil, err
	}
	episode := show.LatestEpisode()
	if episode == nil {
		return &reply{content: fmt.Sprintf("**%s** has no episodes yet.", displayTitle(feed))}, nil
	}
	return &reply{embeds: []discord.Embed{podcast.EpisodeEmbed(show, episode)}}, nil
}

func help(context.Context, *commandContext) (*reply, error) {
	return &reply{content: helpText(), ephemeral: true}, nil
}

// followedFeed resolves the id option to a feed this channel follows.
func (r *Router) followedFeed(ctx context.Context, c *commandContext) (*domain.Feed, error) {
	id := strings.ToLower(c.option(optionID))
	if id == "" {
		return nil, apperrors.ErrInvalidInput
	}

	feeds, err := r.store.GetFeedsByChannelID(ctx, c.channelID)
	if err != nil {
		return nil, err
	}
	for i := range feeds {
		if feeds[i].ID == id {
			return &feeds[i], nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Errorf("channel %s does not follow %s", c.channelID, id))
}

func displayTitle(feed *domain.Feed) string {
	if feed.Title != "" {
		return feed.Title
	}
	return feed.URL
}
