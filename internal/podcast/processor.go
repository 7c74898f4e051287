package podcast

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimlind/announcecast/internal/core/domain"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	achttp "github.com/jimlind/announcecast/internal/infrastructure/http"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/mmcdole/gofeed"
)

// MaxDescriptionLength keeps episode descriptions well inside Discord's embed
// description limit.
const MaxDescriptionLength = 1000

type getter interface {
	Get(ctx context.Context, url string) (*achttp.Response, error)
}

// Processor downloads podcast feeds and turns them into domain.Podcast values.
type Processor struct {
	client getter
}

var _ domain.PodcastFetcher = (*Processor)(nil)

func NewProcessor(client getter) *Processor {
	return &Processor{client: client}
}

func (p *Processor) Process(ctx context.Context, feedURL string, episodeCount int) (*domain.Podcast, error) {
	resp, err := p.client.Get(ctx, feedURL)
	if err != nil {
		logutils.Log.WithError(err).WithField("feed", feedURL).Debug("Feed download failed")
		return nil, err
	}

	podcast, err := Parse(resp.Body, episodeCount)
	if err != nil {
		return nil, err
	}
	podcast.Feed = feedURL
	return podcast, nil
}

// Parse reads an RSS or Atom document. At most episodeCount episodes are kept,
// in document order.
func Parse(data []byte, episodeCount int) (*domain.Podcast, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFeed, err)
	}
	if feed.Title == "" && len(feed.Items) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFeed, fmt.Errorf("feed has no title and no items"))
	}

	podcast := &domain.Podcast{
		Title:  strings.TrimSpace(feed.Title),
		Author: feedAuthor(feed),
		Image:  feedImage(feed),
		Link:   feed.Link,
	}

	for i, item := range feed.Items {
		if i >= episodeCount {
			break
		}
		podcast.Episodes = append(podcast.Episodes, parseEpisode(item, podcast.Image))
	}

	return podcast, nil
}

func feedAuthor(feed *gofeed.Feed) string {
	if feed.ITunesExt != nil && feed.ITunesExt.Author != "" {
		return feed.ITunesExt.Author
	}
	for _, author := range feed.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	return ""
}

func feedImage(feed *gofeed.Feed) string {
	if feed.ITunesExt != nil && feed.ITunesExt.Image != "" {
		return feed.ITunesExt.Image
	}
	if feed.Image != nil {
		return feed.Image.URL
	}
	return ""
}

func parseEpisode(item *gofeed.Item, showImage string) domain.Episode {
	episode := domain.Episode{
		GUID:        item.GUID,
		Title:       strings.TrimSpace(item.Title),
		Link:        item.Link,
		Image:       showImage,
		Description: Summarize(item.Description),
	}
	if episode.GUID == "" {
		episode.GUID = item.Link
	}
	if item.Image != nil && item.Image.URL != "" {
		episode.Image = item.Image.URL
	}
	if ext := item.ITunesExt; ext != nil {
		if ext.Image != "" {
			episode.Image = ext.Image
		}
		episode.Duration = ext.Duration
		episode.Season = ext.Season
		episode.Number = ext.Episode
		episode.Explicit = isExplicit(ext.Explicit)
		if episode.Description == "" {
			episode.Description = Summarize(ext.Summary)
		}
	}
	if item.PublishedParsed != nil {
		episode.Published = *item.PublishedParsed
	}
	return episode
}

func isExplicit(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "explicit":
		return true
	default:
		return false
	}
}

// Summarize returns the text of the first paragraph of an HTML fragment, or
// its whole text when it has no paragraphs, capped at MaxDescriptionLength.
func Summarize(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return truncate(strings.TrimSpace(fragment))
	}

	text := strings.TrimSpace(doc.Find("p").First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}
	return truncate(strings.Join(strings.Fields(text), " "))
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxDescriptionLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:MaxDescriptionLength-1])) + "…"
}
