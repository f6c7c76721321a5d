package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/storage"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const frierenBody = `{"data":{"mal_id":52991,"title":"Sousou no Frieren","title_english":"Frieren: Beyond Journey's End","episodes":28,"broadcast":{"day":"Fridays","time":"23:00","timezone":"Asia/Tokyo"}}}`

type sentReminder struct {
	reminder domain.Reminder
	airsAt   time.Time
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentReminder
	err  error
}

func (f *fakeNotifier) SendReminder(ctx context.Context, reminder domain.Reminder, airsAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentReminder{reminder, airsAt})
	return nil
}

func testConfig() *domain.Config {
	return &domain.Config{
		JikanBaseURL: "https://api.test/v4",
		RequestDelay: time.Millisecond,
		MaxRetries:   1,
		RetryDelay:   time.Millisecond,
		CacheTTL:     time.Minute,
	}
}

func newTestApp(t *testing.T, blobs domain.BlobStore, notifier domain.NotificationService) *App {
	t.Helper()
	httpc := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(frierenBody)),
			Header:     make(http.Header),
		}, nil
	})}

	a, err := New(context.Background(), zerolog.Nop(), testConfig(),
		WithBlobStore(blobs),
		WithHTTPClient(httpc),
		WithNotifier(notifier),
	)
	require.NoError(t, err)
	return a
}

func closeApp(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))
}

func TestAddToListPersistsAcrossRestart(t *testing.T) {
	blobs := storage.NewMemoryStore()
	ctx := context.Background()

	a := newTestApp(t, blobs, &fakeNotifier{})
	e, err := a.AddToList(ctx, 52991, domain.StatusWatching)
	require.NoError(t, err)
	assert.Equal(t, "Frieren: Beyond Journey's End", e.Title)
	assert.Equal(t, 28, e.Episodes)

	_, err = a.ToggleFavorite(ctx, 52991)
	require.NoError(t, err)
	a.Preferences.SetLanguage(domain.LanguageSub)
	closeApp(t, a)

	restarted := newTestApp(t, blobs, &fakeNotifier{})
	defer closeApp(t, restarted)
	assert.True(t, restarted.List.IsFavorite(52991))
	assert.Equal(t, domain.LanguageSub, restarted.Preferences.Language())
}

func TestNewRejectsCorruptList(t *testing.T) {
	blobs := storage.NewMemoryStore()
	require.NoError(t, blobs.Put(context.Background(), domain.ListStorageKey, []byte(`nope`)))

	_, err := New(context.Background(), zerolog.Nop(), testConfig(), WithBlobStore(blobs))
	assert.Error(t, err)
}

func TestCheckReminders(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newTestApp(t, storage.NewMemoryStore(), notifier)
	defer closeApp(t, a)

	ctx := context.Background()
	_, err := a.Remind(ctx, 52991, time.Hour)
	require.NoError(t, err)

	// Friday 23:00 JST is 14:00 UTC
	airsAt := time.Date(2024, 4, 5, 14, 0, 0, 0, time.UTC)

	sent, err := a.CheckReminders(ctx, airsAt.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sent)

	sent, err = a.CheckReminders(ctx, airsAt.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)
	assert.True(t, airsAt.Equal(notifier.sent[0].airsAt))
	assert.Equal(t, 52991, notifier.sent[0].reminder.AnimeID)

	// same occurrence is not announced twice
	sent, err = a.CheckReminders(ctx, airsAt.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, sent)

	// next week's occurrence is
	sent, err = a.CheckReminders(ctx, airsAt.Add(7*24*time.Hour-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestCheckRemindersReportsFailures(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("webhook down")}
	a := newTestApp(t, storage.NewMemoryStore(), notifier)
	defer closeApp(t, a)

	ctx := context.Background()
	_, err := a.Remind(ctx, 52991, time.Hour)
	require.NoError(t, err)

	now := time.Date(2024, 4, 5, 13, 30, 0, 0, time.UTC)
	sent, err := a.CheckReminders(ctx, now)
	assert.Error(t, err)
	assert.Zero(t, sent)

	r, ok := a.Preferences.Reminder(52991)
	require.True(t, ok)
	assert.Nil(t, r.LastNotified, "failed reminders are retried on the next check")
}

func TestListAndCatalogStayIndependent(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryStore(), &fakeNotifier{})
	defer closeApp(t, a)

	item, err := a.Catalog.GetAnimeByID(context.Background(), 52991)
	require.NoError(t, err)
	assert.False(t, a.List.Contains(item.MalID))

	a.List.Add(*item, domain.StatusPlanned)
	assert.True(t, a.List.Contains(item.MalID))
}

type failingStore struct {
	*storage.MemoryStore
	err error
}

func (f failingStore) Ping(ctx context.Context) error { return f.err }

func TestPing(t *testing.T) {
	a := newTestApp(t, storage.NewMemoryStore(), &fakeNotifier{})
	defer closeApp(t, a)
	assert.NoError(t, a.Ping(context.Background()))

	down := newTestApp(t, failingStore{storage.NewMemoryStore(), errors.New("connection refused")}, &fakeNotifier{})
	defer closeApp(t, down)
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
