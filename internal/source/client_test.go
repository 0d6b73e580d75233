package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/pharmintel/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, rps float64) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	return NewClient("test", config.SourceConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: rps,
		Timeout:           5 * time.Second,
	}, 1, "ops@example.com", &log)
}

func TestGetJSONDecodesResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/things", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Contains(t, r.Header.Get("User-Agent"), "ops@example.com")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "aspirin"})
	}, 1000)

	var out struct {
		Name string `json:"name"`
	}
	err := client.GetJSON(context.Background(), "/things", map[string][]string{"id": {"42"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "aspirin", out.Name)
}

func TestPostJSONSendsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["q"])

		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}, 1000)

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.PostJSON(context.Background(), "/query", map[string]string{"q": "hello"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}, 1000)

	err := client.GetJSON(context.Background(), "/missing", nil, &struct{}{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "not here", statusErr.Body)
}

func TestRateLimiterRespectsContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}, 0.001)

	// First call consumes the single burst token.
	require.NoError(t, client.GetJSON(context.Background(), "/a", nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Second call has to wait ~1000s for the next token and must give up
	// when the context expires instead.
	err := client.GetJSON(ctx, "/b", nil, nil)
	require.Error(t, err)
}
