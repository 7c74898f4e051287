package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"github.com/jimlind/announcecast/internal/core/domain"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	acdiscord "github.com/jimlind/announcecast/internal/discord"
	"github.com/jimlind/announcecast/internal/logutils"
)

const genericErrorMessage = "Something went wrong handling that command."

type reply struct {
	content   string
	embeds    []discord.Embed
	ephemeral bool
}

type commandContext struct {
	event     *discord.InteractionEvent
	command   *discord.CommandInteraction
	channelID string
}

func (c *commandContext) option(name string) string {
	for _, opt := range c.command.Options {
		if opt.Name == name {
			return strings.TrimSpace(opt.String())
		}
	}
	return ""
}

type commandHandler struct {
	// deferred commands acknowledge first and edit the reply when done, for
	// work that can outlast Discord's response window.
	deferred bool
	handle   func(ctx context.Context, c *commandContext) (*reply, error)
}

// Router answers slash command interactions.
type Router struct {
	store    domain.FeedStore
	fetcher  domain.PodcastFetcher
	handlers map[string]commandHandler
}

var _ acdiscord.Listener = (*Router)(nil)

func NewRouter(store domain.FeedStore, fetcher domain.PodcastFetcher) *Router {
	r := &Router{store: store, fetcher: fetcher}
	r.handlers = map[string]commandHandler{
		CommandFollow:    {deferred: true, handle: r.follow},
		CommandUnfollow:  {handle: r.unfollow},
		CommandFollowing: {handle: r.following},
		CommandLatest:    {deferred: true, handle: r.latest},
		CommandHelp:      {handle: help},
	}
	return r
}

func (r *Router) OnEvent(ctx context.Context, resp acdiscord.Responder, ev gateway.Event) {
	ic, ok := ev.(*gateway.InteractionCreateEvent)
	if !ok {
		return
	}
	cmd, ok := ic.Data.(*discord.CommandInteraction)
	if !ok {
		return
	}
	r.dispatch(ctx, resp, &ic.InteractionEvent, cmd)
}

func (r *Router) dispatch(ctx context.Context, resp acdiscord.Responder, ev *discord.InteractionEvent, cmd *discord.CommandInteraction) {
	LoggingMiddleware(ev, cmd)

	c := &commandContext{event: ev, command: cmd, channelID: ev.ChannelID.String()}
	h, ok := r.handlers[cmd.Name]
	if !ok {
		logutils.Log.Warnf("Unknown command: %s", cmd.Name)
		respond(resp, ev, &reply{content: "Unknown command. Try /help.", ephemeral: true})
		return
	}

	if !h.deferred {
		respond(resp, ev, run(ctx, h, c))
		return
	}

	ack := api.InteractionResponse{Type: api.DeferredMessageInteractionWithSource}
	if err := resp.RespondInteraction(ev.ID, ev.Token, ack); err != nil {
		logutils.Log.WithError(err).WithField("command", cmd.Name).Error("Failed to acknowledge interaction")
		return
	}
	edit(resp, ev, run(ctx, h, c))
}

func run(ctx context.Context, h commandHandler, c *commandContext) *reply {
	out, err := h.handle(ctx, c)
	if err != nil {
		logutils.Log.WithError(err).WithField("command", c.command.Name).Warn("Command failed")
		return &reply{content: userMessage(err), ephemeral: true}
	}
	return out
}

func userMessage(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) && domainErr.UserMsg != "" {
		return domainErr.UserMsg
	}
	return genericErrorMessage
}

func respond(resp acdiscord.Responder, ev *discord.InteractionEvent, out *reply) {
	data := &api.InteractionResponseData{}
	if out.content != "" {
		data.Content = option.NewNullableString(out.content)
	}
	if len(out.embeds) > 0 {
		data.Embeds = &out.embeds
	}
	if out.ephemeral {
		data.Flags = discord.EphemeralMessage
	}

	err := resp.RespondInteraction(ev.ID, ev.Token, api.InteractionResponse{
		Type: api.MessageInteractionWithSource,
		Data: data,
	})
	if err != nil {
		logutils.Log.WithError(err).Error("Failed to respond to interaction")
	}
}

func edit(resp acdiscord.Responder, ev *discord.InteractionEvent, out *reply) {
	data := api.EditInteractionResponseData{
		Content: option.NewNullableString(out.content),
	}
	embeds := out.embeds
	if embeds == nil {
		embeds = []discord.Embed{}
	}
	data.Embeds = &embeds

	if _, err := resp.EditInteractionResponse(ev.AppID, ev.Token, data); err != nil {
		logutils.Log.WithError(err).Error("Failed to edit interaction response")
	}
}
