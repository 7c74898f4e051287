package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jimlind/announcecast/internal/config"
	"github.com/jimlind/announcecast/internal/logutils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteDatabase keeps subscriptions in a private in-memory SQLite database.
// Nothing survives a restart.
type SQLiteDatabase struct {
	db *gorm.DB

	historySize int
	mu          sync.RWMutex
	posted      map[string]*postedList
}

func NewSQLiteDatabase() *SQLiteDatabase {
	return &SQLiteDatabase{posted: make(map[string]*postedList)}
}

func (s *SQLiteDatabase) Init(config *config.Config) error {
	// A named shared-cache memory database, pinned to one connection so the
	// pool never drops the last handle and with it the data.
	dsn := fmt.Sprintf("file:announcecast-%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	s.db = db
	s.historySize = config.AnnouncerSettings.PostedHistory

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.cachePostedDataLocally(context.Background()); err != nil {
		return fmt.Errorf("failed to load posted data: %w", err)
	}

	logutils.Log.WithField("posted_history", s.historySize).Debug("Subscription store ready")
	return nil
}

func (s *SQLiteDatabase) runMigrations() error {
	if err := s.db.AutoMigrate(&FeedRow{}, &ChannelRow{}, &PostedRow{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Name and Shutdown let the store be registered with the shutdown manager.
func (*SQLiteDatabase) Name() string { return "subscription-store" }

func (s *SQLiteDatabase) Shutdown(_ context.Context) error {
	return s.Close()
}
