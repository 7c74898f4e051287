package podcast

import (
	"strings"
	"unicode/utf8"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jimlind/announcecast/internal/core/domain"
)

const (
	EmbedColor discord.Color = 0x6c3483

	maxTitleLength = 256
)

// EpisodeEmbed renders an episode as a Discord embed attributed to its show.
func EpisodeEmbed(p *domain.Podcast, episode *domain.Episode) discord.Embed {
	embed := discord.Embed{
		Title:       clip(episode.Title, maxTitleLength),
		URL:         episode.Link,
		Description: episode.Description,
		Color:       EmbedColor,
		Author: &discord.EmbedAuthor{
			Name: clip(p.Title, maxTitleLength),
			URL:  p.NormalizedLink(),
			Icon: p.Image,
		},
	}
	if episode.Image != "" {
		embed.Thumbnail = &discord.EmbedThumbnail{URL: episode.Image}
	}
	if footer := episodeFooter(episode); footer != "" {
		embed.Footer = &discord.EmbedFooter{Text: footer}
	}
	if !episode.Published.IsZero() {
		embed.Timestamp = discord.NewTimestamp(episode.Published)
	}
	return embed
}

// ShowEmbed summarizes a followed feed.
func ShowEmbed(p *domain.Podcast, feedID, heading string) discord.Embed {
	embed := discord.Embed{
		Title:       clip(heading+p.Title, maxTitleLength),
		URL:         p.NormalizedLink(),
		Description: "Feed id `" + feedID + "`",
		Color:       EmbedColor,
	}
	if p.Author != "" {
		embed.Author = &discord.EmbedAuthor{Name: clip(p.Author, maxTitleLength)}
	}
	if p.Image != "" {
		embed.Thumbnail = &discord.EmbedThumbnail{URL: p.Image}
	}
	return embed
}

func episodeFooter(e *domain.Episode) string {
	var parts []string
	if e.Season != "" {
		parts = append(parts, "Season "+e.Season)
	}
	if e.Number != "" {
		parts = append(parts, "Episode "+e.Number)
	}
	if e.Duration != "" {
		parts = append(parts, e.Duration)
	}
	if e.Explicit {
		parts = append(parts, "Explicit")
	}
	return strings.Join(parts, " · ")
}

func clip(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit-1]) + "…"
}
