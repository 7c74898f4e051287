package database

// FeedRow is a followed podcast feed. ID is the short id users type.
type FeedRow struct {
	ID    string `gorm:"primaryKey"`
	URL   string `gorm:"uniqueIndex;not null"`
	Title string
}

func (FeedRow) TableName() string { return "feeds" }

// ChannelRow links a feed to a Discord channel following it.
type ChannelRow struct {
	ID        uint   `gorm:"primaryKey"`
	FeedID    string `gorm:"uniqueIndex:idx_feed_channel;not null"`
	ChannelID string `gorm:"uniqueIndex:idx_feed_channel;index;not null"`
}

func (ChannelRow) TableName() string { return "channels" }

// PostedRow holds the comma-joined GUIDs most recently announced for a feed,
// oldest first.
type PostedRow struct {
	FeedID string `gorm:"primaryKey"`
	GUID   string
}

func (PostedRow) TableName() string { return "posted" }
