package handlers

import (
	"context"
	"sync"

	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/jimlind/announcecast/internal/announcer"
	acdiscord "github.com/jimlind/announcecast/internal/discord"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/sirupsen/logrus"
)

// Starter launches background work once the gateway is ready.
type Starter interface {
	Start(ctx context.Context, sender announcer.Sender)
}

// FeedCounter reports how many feeds are being polled.
type FeedCounter interface {
	GetFeedCount() int
}

// Ready reacts to the gateway Ready event: it registers the slash commands
// and starts the announcer. Commands are registered on the first Ready only.
type Ready struct {
	announcer Starter
	feeds     FeedCounter
	once      sync.Once
}

var _ acdiscord.Listener = (*Ready)(nil)

func NewReady(a Starter, feeds FeedCounter) *Ready {
	return &Ready{announcer: a, feeds: feeds}
}

func (h *Ready) OnEvent(ctx context.Context, resp acdiscord.Responder, ev gateway.Event) {
	ready, ok := ev.(*gateway.ReadyEvent)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"user":   ready.User.Username,
		"guilds": len(ready.Guilds),
	}
	if h.feeds != nil {
		fields["feeds"] = h.feeds.GetFeedCount()
	}
	logutils.Log.WithFields(fields).Info("Discord gateway ready")

	h.once.Do(func() {
		registerCommands(resp)
		if h.announcer != nil {
			h.announcer.Start(ctx, resp)
		}
	})
}

func registerCommands(resp acdiscord.Responder) {
	app, err := resp.CurrentApplication()
	if err != nil {
		logutils.Log.WithError(err).Error("Failed to load current application")
		return
	}
	if _, err := resp.BulkOverwriteCommands(app.ID, Commands); err != nil {
		logutils.Log.WithError(err).Error("Failed to register slash commands")
		return
	}
	logutils.Log.WithField("count", len(Commands)).Info("Registered slash commands")
}
