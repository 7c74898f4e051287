package discord

import (
	"context"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
)

// Responder is the slice of the Discord REST API listeners may call back
// into. *api.Client satisfies it.
type Responder interface {
	RespondInteraction(id discord.InteractionID, token string, resp api.InteractionResponse) error
	EditInteractionResponse(appID discord.AppID, token string, data api.EditInteractionResponseData) (*discord.Message, error)
	SendEmbeds(channelID discord.ChannelID, embeds ...discord.Embed) (*discord.Message, error)
	CurrentApplication() (*discord.Application, error)
	BulkOverwriteCommands(appID discord.AppID, commands []api.CreateCommandData) ([]discord.Command, error)
}

var _ Responder = (*api.Client)(nil)

// Listener receives every inbound gateway event.
type Listener interface {
	OnEvent(ctx context.Context, r Responder, ev gateway.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, r Responder, ev gateway.Event)

func (f ListenerFunc) OnEvent(ctx context.Context, r Responder, ev gateway.Event) {
	f(ctx, r, ev)
}

// Listeners is an ordered collection of listeners fanned out to as one.
type Listeners struct {
	members []Listener
}

var _ Listener = (*Listeners)(nil)

func NewListeners(members ...Listener) *Listeners {
	return &Listeners{members: append([]Listener(nil), members...)}
}

// Members returns a copy of the registered listeners in order.
func (l *Listeners) Members() []Listener {
	return append([]Listener(nil), l.members...)
}

func (l *Listeners) Len() int {
	return len(l.members)
}

func (l *Listeners) OnEvent(ctx context.Context, r Responder, ev gateway.Event) {
	for _, member := range l.members {
		member.OnEvent(ctx, r, ev)
	}
}
