package handlers

import (
	"context"
	"testing"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/utils/json"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/database"
	"github.com/jimlind/announcecast/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	feedURL                   = "https://feeds.example.com/hags"
	channel discord.ChannelID = 111
)

func stringOption(name, value string) discord.CommandInteractionOption {
	return discord.CommandInteractionOption{
		Name:  name,
		Type:  discord.StringOptionType,
		Value: json.Raw(`"` + value + `"`),
	}
}

func commandEvent(channelID discord.ChannelID, name string, opts ...discord.CommandInteractionOption) *gateway.InteractionCreateEvent {
	return &gateway.InteractionCreateEvent{InteractionEvent: discord.InteractionEvent{
		ID:        1,
		AppID:     2,
		ChannelID: channelID,
		Token:     "interaction-token",
		User:      &discord.User{ID: 3, Username: "listener"},
		Data:      &discord.CommandInteraction{Name: name, Options: opts},
	}}
}

type routerFixture struct {
	router    *Router
	store     *database.SQLiteDatabase
	fetcher   *testutils.FakeFetcher
	responder *testutils.MockResponder
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	store := testutils.TestDatabase(t)
	fetcher := testutils.NewFakeFetcher()
	return &routerFixture{
		router:    NewRouter(store, fetcher),
		store:     store,
		fetcher:   fetcher,
		responder: &testutils.MockResponder{},
	}
}

func (f *routerFixture) send(ev gateway.Event) {
	f.router.OnEvent(context.Background(), f.responder, ev)
}

func (f *routerFixture) follow(t *testing.T, channelID discord.ChannelID, guids ...string) string {
	t.Helper()
	feed, err := f.store.AddFeed(context.Background(), testutils.TestPodcast(feedURL, "Hags", guids...), channelID.String())
	require.NoError(t, err)
	return feed.ID
}

func replyContent(t *testing.T, r *testutils.InteractionReply) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotNil(t, r.Response.Data)
	require.NotNil(t, r.Response.Data.Content)
	return r.Response.Data.Content.Val
}

func TestFollowDefersThenEditsWithShowEmbed(t *testing.T) {
	f := newRouterFixture(t)
	f.fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-1"))

	f.send(commandEvent(channel, CommandFollow, stringOption(optionURL, feedURL)))

	require.Len(t, f.responder.Replies, 1)
	assert.Equal(t, api.DeferredMessageInteractionWithSource, f.responder.Replies[0].Response.Type)

	last := f.responder.GetLastEdit()
	require.NotNil(t, last)
	assert.Equal(t, discord.AppID(2), last.AppID)
	assert.Equal(t, "interaction-token", last.Token)
	require.NotNil(t, last.Data.Embeds)
	require.Len(t, *last.Data.Embeds, 1)
	assert.Equal(t, "Now following Hags", (*last.Data.Embeds)[0].Title)

	feeds, err := f.store.GetFeedsByChannelID(context.Background(), channel.String())
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, feedURL, feeds[0].URL)
	assert.Equal(t, []string{"ep-1"}, f.store.GetPostedFromURL(feedURL))
}

func TestFollowRejectsBadURL(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"no scheme", "feeds.example.com/hags"},
		{"ftp", "ftp://feeds.example.com/hags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.send(commandEvent(channel, CommandFollow, stringOption(optionURL, tt.value)))

			last := f.responder.GetLastEdit()
			require.NotNil(t, last)
			assert.NotEqual(t, genericErrorMessage, last.Data.Content.Val)
			assert.Empty(t, f.fetcher.Calls())
			assert.Equal(t, 0, f.store.GetFeedCount())
		})
	}
}

func TestFollowReportsUnavailableFeed(t *testing.T) {
	f := newRouterFixture(t)

	f.send(commandEvent(channel, CommandFollow, stringOption(optionURL, feedURL)))

	last := f.responder.GetLastEdit()
	require.NotNil(t, last)
	assert.Equal(t, apperrors.ErrFeedUnavailable.GetUserMessage(), last.Data.Content.Val)
	assert.Equal(t, 0, f.store.GetFeedCount())
}

func TestUnfollowRemovesFeedFromChannel(t *testing.T) {
	f := newRouterFixture(t)
	id := f.follow(t, channel, "ep-1")

	f.send(commandEvent(channel, CommandUnfollow, stringOption(optionID, id)))

	assert.Contains(t, replyContent(t, f.responder.GetLastReply()), "Unfollowed **Hags**")
	feeds, err := f.store.GetFeedsByChannelID(context.Background(), channel.String())
	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestUnfollowUnknownFeedIsNotFound(t *testing.T) {
	f := newRouterFixture(t)
	id := f.follow(t, 222, "ep-1")

	f.send(commandEvent(channel, CommandUnfollow, stringOption(optionID, id)))

	last := f.responder.GetLastReply()
	assert.Equal(t, apperrors.ErrNotFound.GetUserMessage(), replyContent(t, last))
	assert.Equal(t, discord.EphemeralMessage, last.Response.Data.Flags)

	channels, err := f.store.GetChannelsByFeedURL(context.Background(), feedURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"222"}, channels)
}

func TestFollowingListsFeeds(t *testing.T) {
	f := newRouterFixture(t)

	f.send(commandEvent(channel, CommandFollowing))
	assert.Contains(t, replyContent(t, f.responder.GetLastReply()), "isn't following any podcasts")

	id := f.follow(t, channel, "ep-1")
	f.send(commandEvent(channel, CommandFollowing))
	assert.Contains(t, replyContent(t, f.responder.GetLastReply()), "`"+id+"` Hags")
}

func TestLatestShowsNewestEpisode(t *testing.T) {
	f := newRouterFixture(t)
	id := f.follow(t, channel, "ep-1")
	f.fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-2", "ep-1"))

	f.send(commandEvent(channel, CommandLatest, stringOption(optionID, id)))

	assert.Equal(t, api.DeferredMessageInteractionWithSource, f.responder.Replies[0].Response.Type)
	last := f.responder.GetLastEdit()
	require.NotNil(t, last)
	require.Len(t, *last.Data.Embeds, 1)
	assert.Equal(t, "Hags ep-2", (*last.Data.Embeds)[0].Title)
	assert.Empty(t, f.responder.GetSent(), "latest replies without posting to the channel")
}

func TestLatestWithoutEpisodes(t *testing.T) {
	f := newRouterFixture(t)
	id := f.follow(t, channel)
	f.fetcher.Set(testutils.TestPodcast(feedURL, "Hags"))

	f.send(commandEvent(channel, CommandLatest, stringOption(optionID, id)))

	last := f.responder.GetLastEdit()
	require.NotNil(t, last)
	assert.Contains(t, last.Data.Content.Val, "no episodes yet")
}

func TestHelpIsEphemeral(t *testing.T) {
	f := newRouterFixture(t)

	f.send(commandEvent(channel, CommandHelp))

	last := f.responder.GetLastReply()
	content := replyContent(t, last)
	assert.Contains(t, content, "`/follow <url>`")
	assert.Contains(t, content, "`/following`")
	assert.Equal(t, discord.EphemeralMessage, last.Response.Data.Flags)
}

func TestUnknownCommand(t *testing.T) {
	f := newRouterFixture(t)

	f.send(commandEvent(channel, "dance"))

	assert.Contains(t, replyContent(t, f.responder.GetLastReply()), "Unknown command")
}

func TestRouterIgnoresOtherEvents(t *testing.T) {
	f := newRouterFixture(t)

	f.send(&gateway.MessageCreateEvent{})
	f.send(&gateway.InteractionCreateEvent{InteractionEvent: discord.InteractionEvent{
		Data: &discord.PingInteraction{},
	}})

	assert.Empty(t, f.responder.Replies)
	assert.Empty(t, f.responder.Edits)
}

func TestNormalizeFeedURL(t *testing.T) {
	got, err := normalizeFeedURL("HTTPS://Feeds.Example.com:443/hags")
	require.NoError(t, err)
	assert.Equal(t, "https://feeds.example.com/hags", got)
}
