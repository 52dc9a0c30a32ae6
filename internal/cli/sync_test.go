package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfsync/internal/config"
)

func newRemote(t *testing.T, status int, docs []map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"docs": docs})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	return &config.Config{
		Database:    config.Database{Path: filepath.Join(t.TempDir(), "cache.db")},
		Sync:        config.Sync{RetryMaxAttempts: 1, RetryBaseDelay: time.Millisecond},
		OpenLibrary: config.OpenLibrary{BaseURL: baseURL},
	}
}

func TestFeedCommand_ParseFlags(t *testing.T) {
	cmd := NewFeedCommand(testConfig(t, ""))

	require.NoError(t, cmd.ParseFlags([]string{"-force", "-db", "/tmp/other.db"}))
	assert.True(t, cmd.Force)
	assert.Equal(t, "/tmp/other.db", cmd.Config.Database.Path)

	assert.Error(t, NewFeedCommand(testConfig(t, "")).ParseFlags([]string{"-force", "-more"}))
}

func TestSearchCommand_ParseFlags(t *testing.T) {
	assert.Error(t, NewSearchCommand(testConfig(t, "")).ParseFlags(nil))

	cmd := NewSearchCommand(testConfig(t, ""))
	require.NoError(t, cmd.ParseFlags([]string{"-q", "dune", "-more"}))
	assert.Equal(t, "dune", cmd.Query)
	assert.True(t, cmd.More)
}

func TestFeedCommand_Run(t *testing.T) {
	remote := newRemote(t, http.StatusOK, []map[string]any{
		{"key": "/works/OL1W", "title": "Dune", "author_name": []string{"Frank Herbert"}, "first_publish_year": 1965},
		{"key": "/works/OL2W", "title": "Emma"},
	})

	var out bytes.Buffer
	cmd := NewFeedCommand(testConfig(t, remote.URL))
	cmd.Out = &out

	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, out.String(), "Status: fresh (page 1, 2 added)")
	assert.Contains(t, out.String(), "1. Dune (1965) by Frank Herbert [OL1W]")
	assert.Contains(t, out.String(), "2. Emma by Unknown author [OL2W]")
}

func TestFeedCommand_RunFailsWithoutCache(t *testing.T) {
	remote := newRemote(t, http.StatusServiceUnavailable, nil)

	cmd := NewFeedCommand(testConfig(t, remote.URL))
	cmd.Out = &bytes.Buffer{}

	err := cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing cached yet")
}

func TestSearchCommand_RunBlankQuery(t *testing.T) {
	var out bytes.Buffer
	cmd := NewSearchCommand(testConfig(t, "http://127.0.0.1:1"))
	cmd.Query = "   "
	cmd.Out = &out

	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, out.String(), "Status: skipped")
	assert.Contains(t, out.String(), "No books cached")
}
