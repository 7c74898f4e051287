package main

import (
	"context"

	"github.com/jimlind/announcecast/internal/announcer"
	"github.com/jimlind/announcecast/internal/config"
	"github.com/jimlind/announcecast/internal/database"
	"github.com/jimlind/announcecast/internal/discord"
	"github.com/jimlind/announcecast/internal/handlers"
	achttp "github.com/jimlind/announcecast/internal/infrastructure/http"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/jimlind/announcecast/internal/podcast"
	"github.com/jimlind/announcecast/internal/shutdown"
)

var BuildTime = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize configuration")
	}

	logutils.InitLogger(cfg.LogLevel)
	logutils.Log.WithFields(map[string]any{
		"version":    config.Version,
		"build_time": BuildTime,
	}).Info("Starting announcecast")

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize the database")
	}

	settings := cfg.GetAnnouncerSettings()
	client := achttp.NewHTTPClient(settings.FetchTimeout).SetHeader("User-Agent", settings.UserAgent)
	processor := podcast.NewProcessor(client)
	poller := announcer.New(db, processor, settings)

	listeners := discord.NewListeners(
		handlers.NewReady(poller, db),
		handlers.NewRouter(db, processor),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot := discord.New(cfg, listeners, discord.NewGatewayClient)
	if err := bot.Run(ctx); err != nil {
		logutils.Log.WithError(err).Fatal("Failed to start Discord client")
	}
	logutils.Log.Info("announcecast started successfully")

	manager := shutdown.NewManager(cfg.ShutdownTimeout)
	// The gateway and the announcer both write to the store, so they stop
	// before it closes.
	manager.RegisterFirst(bot)
	manager.RegisterFirst(poller)
	manager.Register(db)

	if err := manager.WaitForShutdown(ctx); err != nil {
		logutils.Log.WithError(err).Error("Shutdown finished with errors")
	}
	logutils.Log.Info("announcecast shutdown complete")
}
