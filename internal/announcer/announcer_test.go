package announcer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedURL = "https://feeds.example.com/hags"

func setup(t *testing.T) (*Announcer, *testutils.FakeFetcher, *testutils.MockResponder, context.Context) {
	t.Helper()
	store := testutils.TestDatabase(t)
	fetcher := testutils.NewFakeFetcher()
	ctx := context.Background()

	_, err := store.AddFeed(ctx, testutils.TestPodcast(feedURL, "Hags", "ep-1"), "111")
	require.NoError(t, err)
	_, err = store.AddFeed(ctx, testutils.TestPodcast(feedURL, "Hags"), "222")
	require.NoError(t, err)

	a := New(store, fetcher, testutils.TestConfig().AnnouncerSettings)
	return a, fetcher, &testutils.MockResponder{}, ctx
}

func TestTickSkipsAlreadyPostedEpisode(t *testing.T) {
	a, fetcher, responder, ctx := setup(t)
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-1"))

	assert.True(t, a.Tick(ctx, responder))
	assert.Empty(t, responder.GetSent())
	assert.Equal(t, []string{feedURL}, fetcher.Calls())
}

func TestTickAnnouncesNewEpisodeToEveryChannelOnce(t *testing.T) {
	a, fetcher, responder, ctx := setup(t)
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-2", "ep-1"))

	a.Tick(ctx, responder)

	sent := responder.GetSent()
	require.Len(t, sent, 2)
	assert.Equal(t, discord.ChannelID(111), sent[0].ChannelID)
	assert.Equal(t, discord.ChannelID(222), sent[1].ChannelID)
	require.Len(t, sent[0].Embeds, 1)
	assert.Equal(t, "Hags ep-2", sent[0].Embeds[0].Title)

	a.Tick(ctx, responder)
	assert.Len(t, responder.GetSent(), 2, "the same episode is not announced twice")
}

func TestTickContinuesAfterFetchFailure(t *testing.T) {
	a, fetcher, responder, ctx := setup(t)
	fetcher.Fail(feedURL, errors.New("connection refused"))

	assert.True(t, a.Tick(ctx, responder))
	assert.Empty(t, responder.GetSent())

	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-2"))
	a.Tick(ctx, responder)
	assert.Len(t, responder.GetSent(), 2)
}

func TestTickRecordsEpisodeEvenWhenOneChannelFails(t *testing.T) {
	a, fetcher, responder, ctx := setup(t)
	responder.SendError = errors.New("Missing Access")
	responder.FailChannels = []discord.ChannelID{111}
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-2"))

	a.Tick(ctx, responder)
	sent := responder.GetSent()
	require.Len(t, sent, 1)
	assert.Equal(t, discord.ChannelID(222), sent[0].ChannelID)

	a.Tick(ctx, responder)
	assert.Len(t, responder.GetSent(), 1)
}

func TestTickIgnoresEmptyFeed(t *testing.T) {
	a, fetcher, responder, ctx := setup(t)
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags"))

	a.Tick(ctx, responder)
	assert.Empty(t, responder.GetSent())
}

func TestTickSkipsWhilePreviousPassRuns(t *testing.T) {
	a, _, responder, ctx := setup(t)
	a.running.Store(true)

	assert.False(t, a.Tick(ctx, responder))
}

func TestRunStopsOnCancel(t *testing.T) {
	a, fetcher, responder, _ := setup(t)
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-2"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx, responder)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(responder.GetSent()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("announcer did not stop after cancel")
	}
}

func TestStartOnlyOnce(t *testing.T) {
	a, fetcher, responder, _ := setup(t)
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Start(ctx, responder)
	a.Start(ctx, responder)

	require.Eventually(t, func() bool { return len(fetcher.Calls()) >= 1 }, time.Second, 5*time.Millisecond)
}

func TestShutdownStopsStartedLoop(t *testing.T) {
	a, fetcher, responder, _ := setup(t)
	fetcher.Set(testutils.TestPodcast(feedURL, "Hags", "ep-1"))

	a.Start(context.Background(), responder)
	require.Eventually(t, func() bool { return len(fetcher.Calls()) >= 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))

	calls := len(fetcher.Calls())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, len(fetcher.Calls()), "no passes after shutdown")
}

func TestShutdownWithoutStart(t *testing.T) {
	a, _, _, _ := setup(t)
	assert.NoError(t, a.Shutdown(context.Background()))
}

func TestTickSkipsUnparseableFeed(t *testing.T) {
	a, fetcher, responder, ctx := setup(t)
	fetcher.Fail(feedURL, apperrors.ErrInvalidFeed)

	assert.True(t, a.Tick(ctx, responder))
	assert.Empty(t, responder.GetSent())
	assert.Equal(t, []string{"ep-1"}, a.store.GetPostedFromURL(feedURL))
}
