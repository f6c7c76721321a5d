package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
)

const bebopBody = `{"data":{"mal_id":1,"title":"Cowboy Bebop","episodes":26,"type":"TV","broadcast":{"day":"Saturdays","time":"01:00","timezone":"Asia/Tokyo","string":"Saturdays at 01:00 (JST)"}}}`

// setupCLI points the CLI at a fresh file-backed data directory and a fake
// catalog that only knows anime 1.
func setupCLI(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/1/full" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, bebopBody)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANIMETRACK_DATA_DIR", dir)
	t.Setenv("ANIMETRACK_STORAGE_BACKEND", "file")
	t.Setenv("ANIMETRACK_JIKAN_BASE_URL", srv.URL)
	t.Setenv("ANIMETRACK_REQUEST_DELAY", "1ms")
	t.Setenv("ANIMETRACK_RETRY_DELAY", "1ms")
	t.Setenv("ANIMETRACK_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func storedList(t *testing.T, dir string) []domain.ListEntry {
	t.Helper()
	body, err := os.ReadFile(filepath.Join(dir, "animetrack_list.json"))
	require.NoError(t, err)
	var entries []domain.ListEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	return entries
}

func TestListCommandsPersistAndClampProgress(t *testing.T) {
	dir := setupCLI(t)

	out, err := runCLI(t, "list", "add", "1", "--status", "watching")
	require.NoError(t, err)
	assert.Contains(t, out, "Cowboy Bebop")
	assert.Contains(t, out, "0/26")

	out, err = runCLI(t, "list", "progress", "1", "999")
	require.NoError(t, err)
	assert.Contains(t, out, "26/26")

	entries := storedList(t, dir)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].AnimeID)
	assert.Equal(t, domain.StatusWatching, entries[0].Status)
	assert.Equal(t, 26, entries[0].Progress)

	out, err = runCLI(t, "list", "stats")
	require.NoError(t, err)
	assert.Regexp(t, `Total:\s+1`, out)
	assert.Regexp(t, `Watching:\s+1`, out)
	assert.Regexp(t, `Episodes:\s+26`, out)
}

func TestListCommandsRejectMissingEntry(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "list", "progress", "1", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not on your list")

	_, err = runCLI(t, "list", "add", "2")
	assert.Error(t, err, "unknown catalog id")
}

func TestRemindCheckSendsOncePerBroadcast(t *testing.T) {
	setupCLI(t)

	// a week of lead time makes the next broadcast always due
	out, err := runCLI(t, "remind", "add", "1", "--lead", "168h")
	require.NoError(t, err)
	assert.Contains(t, out, "Cowboy Bebop")

	out, err = runCLI(t, "remind", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "1 reminders sent")

	out, err = runCLI(t, "remind", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "0 reminders sent")
}
