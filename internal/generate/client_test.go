package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var gotAuth string
	var gotReq responseRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/responses", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"output": [
				{"type": "reasoning", "content": []},
				{"type": "message", "content": [
					{"type": "output_text", "text": "Preserved Requirements:\n- stats\n\nImplement deck stats."}
				]}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", 5*time.Second)
	out, err := c.Complete(context.Background(), "system instruction", "user text")
	require.NoError(t, err)

	assert.Equal(t, "Preserved Requirements:\n- stats\n\nImplement deck stats.", out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.InDelta(t, 0.4, gotReq.Temperature, 0.0001)
	require.Len(t, gotReq.Input, 2)
	assert.Equal(t, "system", gotReq.Input[0].Role)
	assert.Equal(t, "system instruction", gotReq.Input[0].Content)
	assert.Equal(t, "user", gotReq.Input[1].Role)
	assert.Equal(t, "user text", gotReq.Input[1].Content)
}

func TestClient_Complete_APIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-bad", "gpt-4o-mini", 5*time.Second)
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Complete_EmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", 5*time.Second)
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output text")
}

func TestClient_Complete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the port refuses connections

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", time.Second)
	_, err := c.Complete(context.Background(), "sys", "user")
	assert.Error(t, err)
}
