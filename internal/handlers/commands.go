package handlers

import (
	"strings"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
)

const (
	CommandFollow    = "follow"
	CommandUnfollow  = "unfollow"
	CommandFollowing = "following"
	CommandLatest    = "latest"
	CommandHelp      = "help"

	optionURL = "url"
	optionID  = "id"
)

// Commands is the slash command set registered on every Ready.
var Commands = []api.CreateCommandData{
	{
		Name:        CommandFollow,
		Description: "Announce new episodes of a podcast in this channel",
		Options: discord.CommandOptions{
			&discord.StringOption{OptionName: optionURL, Description: "Podcast RSS feed URL", Required: true},
		},
	},
	{
		Name:        CommandUnfollow,
		Description: "Stop announcing a podcast in this channel",
		Options: discord.CommandOptions{
			&discord.StringOption{OptionName: optionID, Description: "Feed id from /following", Required: true},
		},
	},
	{
		Name:        CommandFollowing,
		Description: "List the podcasts followed in this channel",
	},
	{
		Name:        CommandLatest,
		Description: "Show the latest episode of a followed podcast",
		Options: discord.CommandOptions{
			&discord.StringOption{OptionName: optionID, Description: "Feed id from /following", Required: true},
		},
	},
	{
		Name:        CommandHelp,
		Description: "Show what this bot can do",
	},
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("**announcecast** posts new podcast episodes to this channel.\n")
	for _, cmd := range Commands {
		sb.WriteString("`/")
		sb.WriteString(cmd.Name)
		for _, opt := range cmd.Options {
			if s, ok := opt.(*discord.StringOption); ok {
				sb.WriteString(" <" + s.OptionName + ">")
			}
		}
		sb.WriteString("` ")
		sb.WriteString(cmd.Description)
		sb.WriteString("\n")
	}
	return sb.String()
}
