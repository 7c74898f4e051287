package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jimlind/announcecast/internal/core/domain"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	feedIDLength   = 6
	feedIDAttempts = 5
)

func newFeedID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:feedIDLength]
}

// AddFeed follows podcast in channelID. Following a feed that is already
// stored reuses its id. A feed with no posted history is seeded with the
// podcast's current episodes so that only later episodes are announced.
func (s *SQLiteDatabase) AddFeed(ctx context.Context, podcast *domain.Podcast, channelID string) (*domain.Feed, error) {
	if podcast == nil || podcast.Feed == "" || channelID == "" {
		return nil, apperrors.ErrInvalidInput
	}

	var feed FeedRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		feed, err = s.insertFeed(tx, podcast)
		if err != nil {
			return err
		}

		channel := ChannelRow{FeedID: feed.ID, ChannelID: channelID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&channel).Error; err != nil {
			return fmt.Errorf("failed to link channel: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	s.seedPosted(ctx, feed, podcast)

	return toDomainFeed(feed), nil
}

func (*SQLiteDatabase) insertFeed(tx *gorm.DB, podcast *domain.Podcast) (FeedRow, error) {
	for attempt := 0; attempt < feedIDAttempts; attempt++ {
		row := FeedRow{ID: newFeedID(), URL: podcast.Feed, Title: podcast.Title}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return FeedRow{}, fmt.Errorf("failed to insert feed: %w", err)
		}

		var stored FeedRow
		err := tx.Where("url = ?", podcast.Feed).Take(&stored).Error
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return FeedRow{}, fmt.Errorf("failed to look up feed: %w", err)
		}
		// The generated id collided with another feed; try a new one.
	}
	return FeedRow{}, fmt.Errorf("could not allocate a feed id after %d attempts", feedIDAttempts)
}

// seedPosted adds podcast's current episodes to the posted history of a feed
// that has just gained its first follower, on top of anything stored earlier.
func (s *SQLiteDatabase) seedPosted(ctx context.Context, feed FeedRow, podcast *domain.Podcast) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posted[feed.URL]; ok {
		return
	}

	list := newPostedList(s.historySize)
	var row PostedRow
	if err := s.db.WithContext(ctx).Where("feed_id = ?", feed.ID).Take(&row).Error; err == nil {
		for _, guid := range splitGUIDs(row.GUID) {
			list.add(guid)
		}
	}
	for i := len(podcast.Episodes) - 1; i >= 0; i-- {
		list.add(podcast.Episodes[i].GUID)
	}
	s.posted[feed.URL] = list

	if guids := list.list(); len(guids) > 0 {
		if err := s.savePosted(s.db.WithContext(ctx), feed.ID, strings.Join(guids, ",")); err != nil {
			logutils.Log.WithError(err).WithField("feed", feed.URL).Warn("Failed to store seeded posted data")
		}
	}
}

// RemoveFeed unfollows feedID in channelID. The feed stays followed by other
// channels. ErrNotFound is returned when the channel was not following it.
func (s *SQLiteDatabase) RemoveFeed(ctx context.Context, feedID, channelID string) error {
	feed, err := s.GetFeedByID(ctx, feedID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("feed_id = ? AND channel_id = ?", feed.ID, channelID).
		Delete(&ChannelRow{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, fmt.Errorf("channel %s does not follow %s", channelID, feed.ID))
	}

	var remaining int64
	if err := s.db.WithContext(ctx).Model(&ChannelRow{}).Where("feed_id = ?", feed.ID).Count(&remaining).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if remaining > 0 {
		return nil
	}

	s.mu.Lock()
	delete(s.posted, feed.URL)
	s.mu.Unlock()

	if err := s.db.WithContext(ctx).Where("feed_id = ?", feed.ID).Delete(&PostedRow{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetFeedsByChannelID lists the feeds channelID follows, ordered by title.
func (s *SQLiteDatabase) GetFeedsByChannelID(ctx context.Context, channelID string) ([]domain.Feed, error) {
	var rows []FeedRow
	err := s.db.WithContext(ctx).
		Joins("INNER JOIN channels ON feeds.id = channels.feed_id").
		Where("channels.channel_id = ?", channelID).
		Order("feeds.title").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	feeds := make([]domain.Feed, 0, len(rows))
	for _, row := range rows {
		feeds = append(feeds, *toDomainFeed(row))
	}
	return feeds, nil
}

// GetChannelsByFeedURL lists the channel ids following feedURL.
func (s *SQLiteDatabase) GetChannelsByFeedURL(ctx context.Context, feedURL string) ([]string, error) {
	var channelIDs []string
	err := s.db.WithContext(ctx).
		Model(&ChannelRow{}).
		Joins("INNER JOIN feeds ON channels.feed_id = feeds.id").
		Where("feeds.url = ?", feedURL).
		Order("channels.id").
		Pluck("channels.channel_id", &channelIDs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return channelIDs, nil
}

func (s *SQLiteDatabase) GetFeedByID(ctx context.Context, feedID string) (*domain.Feed, error) {
	var row FeedRow
	err := s.db.WithContext(ctx).Where("id = ?", strings.ToLower(strings.TrimSpace(feedID))).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, err).WithDetails(map[string]any{"feed_id": feedID})
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return toDomainFeed(row), nil
}

func toDomainFeed(row FeedRow) *domain.Feed {
	return &domain.Feed{ID: row.ID, URL: row.URL, Title: row.Title}
}
