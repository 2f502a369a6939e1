package pushover

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/codex-relay/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSender() *retry.Sender {
	return retry.NewSender(retry.Policy{MaxAttempts: 1, BackoffBase: time.Millisecond}, testLogger())
}

func TestNotify_SendsFormPayload(t *testing.T) {
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	n := NewNotifier("app-token", "user-key", "Aleqsd/EDH-PodLog", time.Second, testSender(), testLogger())
	n.apiURL = srv.URL

	n.Notify(context.Background(), "Deck stats", 8, "✅ Comment posted to issue #8")

	require.NotNil(t, gotForm)
	assert.Equal(t, "app-token", gotForm["token"])
	assert.Equal(t, "user-key", gotForm["user"])
	assert.Equal(t, "Deck stats", gotForm["title"])
	assert.Equal(t, "✅ Comment posted to issue #8", gotForm["message"])
	assert.Equal(t, "https://github.com/Aleqsd/EDH-PodLog/issues/8", gotForm["url"])
	assert.Equal(t, "View issue #8", gotForm["url_title"])
}

func TestNotify_NoCredentialsIsNoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewNotifier("", "", "owner/repo", time.Second, testSender(), testLogger())
	n.apiURL = srv.URL

	n.Notify(context.Background(), "title", 1, "msg")
	assert.False(t, called, "no outbound call without credentials")
	assert.False(t, n.Configured())
}

func TestNotify_APIErrorDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":0,"errors":["invalid token"]}`))
	}))
	defer srv.Close()

	n := NewNotifier("bad", "bad", "owner/repo", time.Second, testSender(), testLogger())
	n.apiURL = srv.URL

	// Must not panic or propagate anything.
	n.Notify(context.Background(), "title", 1, "msg")
}

func TestNotify_TransportErrorDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n := NewNotifier("tok", "key", "owner/repo", time.Second, testSender(), testLogger())
	n.apiURL = srv.URL

	n.Notify(context.Background(), "title", 1, "msg")
}
