package handlers

import (
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs an incoming slash command.
func LoggingMiddleware(ev *discord.InteractionEvent, cmd *discord.CommandInteraction) {
	options := make(map[string]string, len(cmd.Options))
	for _, opt := range cmd.Options {
		options[opt.Name] = opt.String()
	}

	logutils.Log.WithFields(logrus.Fields{
		"command": cmd.Name,
		"options": options,
		"user_id": ev.SenderID().String(),
		"channel": ev.ChannelID.String(),
		"guild":   ev.GuildID.String(),
	}).Info("Received command")
}
