package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postedList is the bounded, recency-ordered set of GUIDs announced for one
// feed.
type postedList struct {
	guids *lru.Cache[string, struct{}]
}

func newPostedList(size int) *postedList {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		// lru.New only fails for a non-positive size, which config rejects.
		panic(err)
	}
	return &postedList{guids: cache}
}

func (p *postedList) add(guid string) {
	if guid == "" {
		return
	}
	p.guids.Add(guid, struct{}{})
}

// list returns the GUIDs oldest first.
func (p *postedList) list() []string {
	return p.guids.Keys()
}

func splitGUIDs(joined string) []string {
	var guids []string
	for _, guid := range strings.Split(joined, ",") {
		if guid = strings.TrimSpace(guid); guid != "" {
			guids = append(guids, guid)
		}
	}
	return guids
}

type postedDataRow struct {
	URL  string
	GUID *string
}

// cachePostedDataLocally rebuilds the posted cache from every feed followed by
// at least one channel.
func (s *SQLiteDatabase) cachePostedDataLocally(ctx context.Context) error {
	var rows []postedDataRow
	err := s.db.WithContext(ctx).
		Table("feeds AS f").
		Select("f.url AS url, p.guid AS guid").
		Joins("LEFT JOIN posted AS p ON f.id = p.feed_id").
		Where("EXISTS (SELECT 1 FROM channels AS c WHERE c.feed_id = f.id)").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	posted := make(map[string]*postedList, len(rows))
	for _, row := range rows {
		list := newPostedList(s.historySize)
		if row.GUID != nil {
			for _, guid := range splitGUIDs(*row.GUID) {
				list.add(guid)
			}
		}
		posted[row.URL] = list
	}

	s.mu.Lock()
	s.posted = posted
	s.mu.Unlock()
	return nil
}

// GetPostedFeeds returns the URLs of every feed that has a follower.
func (s *SQLiteDatabase) GetPostedFeeds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.posted))
	for url := range s.posted {
		urls = append(urls, url)
	}
	return urls
}

// GetPostedFromURL returns the GUIDs recently announced for feedURL, oldest
// first.
func (s *SQLiteDatabase) GetPostedFromURL(feedURL string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.posted[feedURL]
	if !ok {
		return nil
	}
	return list.list()
}

func (s *SQLiteDatabase) GetFeedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posted)
}

// UpdatePostedData records guid as announced for feedURL in the cache and the
// posted table. A feed that lost its last follower is left untouched.
func (s *SQLiteDatabase) UpdatePostedData(ctx context.Context, feedURL, guid string) error {
	var feed FeedRow
	if err := s.db.WithContext(ctx).Where("url = ?", feedURL).Take(&feed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrNotFound, fmt.Errorf("feed %s is not stored", feedURL))
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}

	s.mu.Lock()
	list, ok := s.posted[feedURL]
	if !ok {
		s.mu.Unlock()
		logutils.Log.WithField("feed", feedURL).Debug("Feed has no followers, not recording posted episode")
		return nil
	}
	list.add(guid)
	joined := strings.Join(list.list(), ",")
	s.mu.Unlock()

	if err := s.savePosted(s.db.WithContext(ctx), feed.ID, joined); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

func (*SQLiteDatabase) savePosted(tx *gorm.DB, feedID, joined string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "feed_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"guid"}),
	}).Create(&PostedRow{FeedID: feedID, GUID: joined}).Error
}
