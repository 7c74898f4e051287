package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSendsHeaders(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	client := NewHTTPClient(time.Second).SetHeader("User-Agent", "announcecast-test")
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "announcecast-test", gotAgent)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<rss/>", string(resp.Body))
	assert.Equal(t, "application/rss+xml", resp.Headers["Content-Type"])
	assert.False(t, resp.IsError)
}

func TestGetErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPClient(time.Second).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFeedUnavailable))
}

func TestGetRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<rss>0123456789</rss>"))
	}))
	defer server.Close()

	client := NewHTTPClient(time.Second)
	client.bodyLimit = 8

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFeedUnavailable))

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, int64(8), domainErr.Details["limit_bytes"])
}

func TestGetAcceptsBodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	client := NewHTTPClient(time.Second)
	client.bodyLimit = int64(len("<rss/>"))

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(resp.Body))
}

func TestGetTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewHTTPClient(20*time.Millisecond).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFeedUnavailable))
}

func TestGetInvalidURL(t *testing.T) {
	_, err := NewHTTPClient(time.Second).Get(context.Background(), "://nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
