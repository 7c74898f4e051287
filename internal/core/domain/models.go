package domain

import (
	"time"

	"github.com/PuerkitoBio/purell"
)

// Podcast is a parsed show with its most recent episodes first.
type Podcast struct {
	Title    string
	Author   string
	Image    string
	Link     string
	Feed     string
	Episodes []Episode
}

type Episode struct {
	GUID        string
	Title       string
	Link        string
	Image       string
	Description string
	Duration    string
	Season      string
	Number      string
	Explicit    bool
	Published   time.Time
}

// Feed is a followed feed as stored for a channel.
type Feed struct {
	ID    string
	URL   string
	Title string
}

const linkNormalization = purell.FlagsUsuallySafeGreedy | purell.FlagRemoveDuplicateSlashes

// NormalizedLink returns the show link in canonical form, or the raw link if
// it cannot be parsed.
func (p *Podcast) NormalizedLink() string {
	if p.Link == "" {
		return ""
	}
	normalized, err := purell.NormalizeURLString(p.Link, linkNormalization)
	if err != nil {
		return p.Link
	}
	return normalized
}

// LatestEpisode returns the newest episode, or nil for an empty feed.
func (p *Podcast) LatestEpisode() *Episode {
	if len(p.Episodes) == 0 {
		return nil
	}
	return &p.Episodes[0]
}
