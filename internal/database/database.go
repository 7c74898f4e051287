package database

import (
	"context"

	"github.com/jimlind/announcecast/internal/config"
	"github.com/jimlind/announcecast/internal/core/domain"
	"github.com/jimlind/announcecast/internal/logutils"
)

// Database is the subscription store with its lifecycle hooks.
type Database interface {
	Init(config *config.Config) error
	domain.FeedStore
	Close() error

	Name() string
	Shutdown(ctx context.Context) error
}

func NewDatabase(config *config.Config) (Database, error) {
	database := NewSQLiteDatabase()
	if err := database.Init(config); err != nil {
		logutils.Log.WithError(err).Error("Failed to initialize the database")
		return nil, err
	}

	logutils.Log.Info("Database initialized successfully")
	return database, nil
}
