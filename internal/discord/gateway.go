package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/jimlind/announcecast/internal/logutils"
)

// Client is a gateway client: listeners are added before Start, Start opens
// the connection and returns once the library owns the dispatch loop.
type Client interface {
	AddEventListeners(listeners ...Listener)
	Start(ctx context.Context) error
	Close() error
}

// ClientFactory builds a Client for token. light disables member and
// presence caching.
type ClientFactory func(token string, light bool) (Client, error)

// conn is what gatewayClient needs from a session or state.
type conn interface {
	AddHandler(handler any) (rm func())
	AddIntents(intents gateway.Intents)
	Open(ctx context.Context) error
	Close() error
}

const (
	lightIntents = gateway.IntentGuilds
	fullIntents  = gateway.IntentGuilds | gateway.IntentGuildMembers | gateway.IntentGuildPresences
)

type gatewayClient struct {
	conn      conn
	responder Responder
	intents   gateway.Intents

	mu        sync.Mutex
	listeners []Listener
	remove    func()
}

var _ ClientFactory = NewGatewayClient

// NewGatewayClient builds an arikawa-backed client. In light mode it is a bare
// session with no state cache; otherwise a caching state with the member and
// presence intents.
func NewGatewayClient(token string, light bool) (Client, error) {
	if light {
		s := session.New("Bot " + token)
		return newGatewayClient(s, s.Client, lightIntents), nil
	}
	st := state.New("Bot " + token)
	return newGatewayClient(st, st.Client, fullIntents), nil
}

func newGatewayClient(c conn, r Responder, intents gateway.Intents) *gatewayClient {
	return &gatewayClient{conn: c, responder: r, intents: intents}
}

func (g *gatewayClient) AddEventListeners(listeners ...Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, listeners...)
}

// Start registers one dispatch handler for the added listeners and opens the
// gateway. ctx is handed to listeners for the lifetime of the connection.
func (g *gatewayClient) Start(ctx context.Context) error {
	g.mu.Lock()
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	g.conn.AddIntents(g.intents)
	remove := g.conn.AddHandler(func(ev gateway.Event) {
		for _, l := range listeners {
			l.OnEvent(ctx, g.responder, ev)
		}
	})

	if err := g.conn.Open(ctx); err != nil {
		remove()
		return fmt.Errorf("failed to open gateway connection: %w", err)
	}

	g.mu.Lock()
	g.remove = remove
	g.mu.Unlock()

	logutils.Log.WithField("listeners", len(listeners)).Info("Gateway connection opened")
	return nil
}

func (g *gatewayClient) Close() error {
	g.mu.Lock()
	remove := g.remove
	g.remove = nil
	g.mu.Unlock()

	if remove != nil {
		remove()
	}
	return g.conn.Close()
}
