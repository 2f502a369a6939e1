package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	s := NewSender(Policy{MaxAttempts: 3, BackoffBase: time.Millisecond}, testLogger())

	calls := 0
	resp := s.Do(context.Background(), "test", func() (*http.Response, error) {
		calls++
		return fakeResponse(http.StatusOK), nil
	})

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransportErrors(t *testing.T) {
	s := NewSender(Policy{MaxAttempts: 3, BackoffBase: time.Millisecond}, testLogger())

	calls := 0
	resp := s.Do(context.Background(), "test", func() (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return fakeResponse(http.StatusCreated), nil
	})

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustedReturnsNil(t *testing.T) {
	s := NewSender(Policy{MaxAttempts: 3, BackoffBase: time.Millisecond}, testLogger())

	calls := 0
	resp := s.Do(context.Background(), "test", func() (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	assert.Nil(t, resp)
	assert.Equal(t, 3, calls)
}

func TestDo_BadStatusIsNotRetried(t *testing.T) {
	s := NewSender(Policy{MaxAttempts: 5, BackoffBase: time.Millisecond}, testLogger())

	calls := 0
	resp := s.Do(context.Background(), "test", func() (*http.Response, error) {
		calls++
		return fakeResponse(http.StatusBadGateway), nil
	})

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 1, calls, "bad status codes are the caller's concern, not retried")
}

func TestDo_LinearBackoff(t *testing.T) {
	base := 20 * time.Millisecond
	s := NewSender(Policy{MaxAttempts: 3, BackoffBase: base}, testLogger())

	start := time.Now()
	resp := s.Do(context.Background(), "test", func() (*http.Response, error) {
		return nil, errors.New("down")
	})
	elapsed := time.Since(start)

	assert.Nil(t, resp)
	// Waits base*1 + base*2 between the three attempts, none after the last.
	assert.GreaterOrEqual(t, elapsed, 3*base)
	assert.Less(t, elapsed, 10*base)
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	s := NewSender(Policy{MaxAttempts: 10, BackoffBase: time.Minute}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	resp := s.Do(ctx, "test", func() (*http.Response, error) {
		calls++
		return nil, errors.New("down")
	})

	assert.Nil(t, resp)
	assert.Equal(t, 1, calls)
}

func TestNewSender_RaisesZeroAttempts(t *testing.T) {
	s := NewSender(Policy{MaxAttempts: 0}, testLogger())

	calls := 0
	s.Do(context.Background(), "test", func() (*http.Response, error) {
		calls++
		return nil, errors.New("down")
	})
	assert.Equal(t, 1, calls)
}
