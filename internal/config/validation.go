package config

import (
	apperrors "github.com/jimlind/announcecast/internal/core/errors"
)

func (c *Config) validate() error {
	if err := c.validateAnnouncerSettings(); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("SHUTDOWN_TIMEOUT must be positive", c.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateAnnouncerSettings() error {
	s := c.AnnouncerSettings

	if s.PollInterval <= 0 {
		return invalid("POLL_INTERVAL must be positive", s.PollInterval)
	}
	if s.FetchTimeout <= 0 {
		return invalid("FEED_FETCH_TIMEOUT must be positive", s.FetchTimeout)
	}
	if s.PostedHistory < 1 {
		return invalid("POSTED_HISTORY must be at least 1", s.PostedHistory)
	}
	if s.UserAgent == "" {
		return invalid("FEED_USER_AGENT cannot be empty", s.UserAgent)
	}

	return nil
}

func invalid(message string, value any) error {
	return apperrors.NewDomainError(apperrors.ErrorTypeConfig, apperrors.ErrInvalidConfig.Code, message).
		WithDetails(map[string]any{"value": value})
}
