package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/jimlind/announcecast/internal/config"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
)

// Discord is the process bootstrap: it builds a light gateway client with the
// configured token, registers its listener collection and starts it. It may
// be run once.
type Discord struct {
	token     string
	listeners *Listeners
	factory   ClientFactory

	mu      sync.Mutex
	started bool
	client  Client
}

// New captures the token from cfg. The environment is not consulted again.
func New(cfg *config.Config, listeners *Listeners, factory ClientFactory) *Discord {
	if factory == nil {
		factory = NewGatewayClient
	}
	return &Discord{
		token:     cfg.DiscordBotToken,
		listeners: listeners,
		factory:   factory,
	}
}

// Run builds and starts the client. Errors from Start are returned as is. A
// second call returns ErrAlreadyStarted.
func (d *Discord) Run(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return apperrors.ErrAlreadyStarted
	}
	d.started = true

	client, err := d.factory(d.token, true)
	if err != nil {
		return fmt.Errorf("failed to build gateway client: %w", err)
	}
	client.AddEventListeners(d.listeners)

	logutils.Log.WithField("listeners", d.listeners.Len()).Info("Starting Discord gateway client in light mode")
	if err := client.Start(ctx); err != nil {
		return err
	}

	d.client = client
	return nil
}

func (*Discord) Name() string { return "discord-gateway" }

// Shutdown closes the gateway connection if Run succeeded.
func (d *Discord) Shutdown(_ context.Context) error {
	d.mu.Lock()
	client := d.client
	d.client = nil
	d.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}
