package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsIdentity(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := Wrap(ErrFeedUnavailable, cause)

	assert.True(t, stderrors.Is(err, ErrFeedUnavailable))
	assert.True(t, stderrors.Is(err, cause))
	assert.False(t, stderrors.Is(err, ErrInvalidFeed))
	assert.Equal(t, ErrFeedUnavailable.UserMsg, err.GetUserMessage())
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestWrapDoesNotMutateSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, stderrors.New("missing")).WithDetails(map[string]any{"id": "abc123"})

	assert.Equal(t, "abc123", err.Details["id"])
	assert.Empty(t, ErrNotFound.Details)
	assert.Nil(t, ErrNotFound.Cause)
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "explicit user message",
			err:      NewDomainError(ErrorTypeValidation, "x", "internal text").WithUserMessage("shown"),
			expected: "shown",
		},
		{
			name:     "falls back to message",
			err:      NewDomainError(ErrorTypeInternal, "y", "internal text"),
			expected: "internal text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.GetUserMessage())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, ErrFeedUnavailable.IsRetryable())
	assert.False(t, ErrInvalidFeed.IsRetryable())
	assert.False(t, ErrNotFound.IsRetryable())
}
