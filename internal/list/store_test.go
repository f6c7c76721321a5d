package list

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/storage"
)

type recorder struct {
	mu    sync.Mutex
	blobs [][]byte
}

func (r *recorder) Enqueue(blob []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs = append(r.blobs, blob)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func anime(id int, title string, episodes int) domain.Anime {
	return domain.Anime{
		MalID:    id,
		Title:    title,
		Episodes: &episodes,
		Images:   domain.Images{JPG: domain.ImageSet{ImageURL: "https://cdn.myanimelist.net/images/anime/1.jpg"}},
		Broadcast: domain.Broadcast{
			Day:      "Fridays",
			Time:     "23:00",
			Timezone: "Asia/Tokyo",
		},
	}
}

func newTestStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	clock := &stepClock{t: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(zerolog.Nop(), rec, WithClock(clock.Now)), rec
}

func rating(r int) *int { return &r }

func TestAddCreatesEntry(t *testing.T) {
	s, rec := newTestStore(t)

	e := s.Add(anime(52991, "Sousou no Frieren", 28), domain.StatusWatching)

	assert.Equal(t, 52991, e.AnimeID)
	assert.Equal(t, "Sousou no Frieren", e.Title)
	assert.Equal(t, 28, e.Episodes)
	assert.Equal(t, domain.StatusWatching, e.Status)
	assert.Zero(t, e.Progress)
	assert.Nil(t, e.Rating)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.True(t, s.Contains(52991))
	assert.Equal(t, 1, rec.count())
}

func TestAddIsIdempotentUpsert(t *testing.T) {
	s, _ := newTestStore(t)
	item := anime(1, "Cowboy Bebop", 26)

	s.Add(item, domain.StatusPlanned)
	s.UpdateProgress(1, 12)
	s.UpdateRating(1, rating(5))
	s.Add(item, domain.StatusPlanned)

	require.Equal(t, 1, s.Len())
	e, ok := s.Item(1)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPlanned, e.Status)
	assert.Zero(t, e.Progress)
	assert.Nil(t, e.Rating)
}

func TestUpdatesOnMissingEntryAreNoOps(t *testing.T) {
	s, rec := newTestStore(t)
	s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusWatching)
	before := s.Items()
	writes := rec.count()

	s.UpdateProgress(404, 3)
	s.UpdateStatus(404, domain.StatusCompleted)
	s.UpdateRating(404, rating(4))
	s.UpdateNote(404, "never mind")
	s.Remove(404)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, before, s.Items())
	assert.Equal(t, writes, rec.count(), "no-ops must not persist")
}

func TestUpdatesMutateInPlace(t *testing.T) {
	s, _ := newTestStore(t)
	created := s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusPlanned)

	s.UpdateStatus(1, domain.StatusWatching)
	s.UpdateProgress(1, 5)
	s.UpdateRating(1, rating(4))
	s.UpdateNote(1, "session 5 rewatch")

	e, _ := s.Item(1)
	assert.Equal(t, domain.StatusWatching, e.Status)
	assert.Equal(t, 5, e.Progress)
	require.NotNil(t, e.Rating)
	assert.Equal(t, 4, *e.Rating)
	assert.Equal(t, "session 5 rewatch", e.Note)
	assert.Equal(t, created.CreatedAt, e.CreatedAt)
	assert.True(t, e.UpdatedAt.After(created.UpdatedAt))

	s.UpdateRating(1, nil)
	e, _ = s.Item(1)
	assert.Nil(t, e.Rating)
}

func TestApplySetsFieldsInOneMutation(t *testing.T) {
	s, rec := newTestStore(t)
	added := s.Add(anime(52991, "Sousou no Frieren", 28), domain.StatusPlanned)
	s.UpdateRating(52991, rating(3))
	before := rec.count()

	status := domain.StatusWatching
	progress := 7
	note := "rewatch with friends"
	e, ok := s.Apply(52991, Changes{Status: &status, Progress: &progress, SetRating: true, Note: &note})
	require.True(t, ok)

	assert.Equal(t, before+1, rec.count())
	assert.Equal(t, domain.StatusWatching, e.Status)
	assert.Equal(t, 7, e.Progress)
	assert.Nil(t, e.Rating)
	assert.Equal(t, "rewatch with friends", e.Note)
	assert.True(t, e.UpdatedAt.After(added.UpdatedAt))

	stored, _ := s.Item(52991)
	assert.Equal(t, e, stored)
}

func TestApplyLeavesUnsetFieldsAlone(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(anime(52991, "Sousou no Frieren", 28), domain.StatusWatching)
	s.UpdateRating(52991, rating(4))

	progress := 3
	e, ok := s.Apply(52991, Changes{Progress: &progress})
	require.True(t, ok)
	assert.Equal(t, domain.StatusWatching, e.Status)
	require.NotNil(t, e.Rating)
	assert.Equal(t, 4, *e.Rating)
}

func TestApplyOnMissingEntryIsNoOp(t *testing.T) {
	s, rec := newTestStore(t)

	progress := 3
	_, ok := s.Apply(1, Changes{Progress: &progress})
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Zero(t, rec.count())
}

func TestProgressIsNotValidatedByStore(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusWatching)

	s.UpdateProgress(1, 40)
	e, _ := s.Item(1)
	assert.Equal(t, 40, e.Progress)
	assert.Equal(t, domain.StatusWatching, e.Status, "reaching the last episode does not complete the entry")

	assert.Equal(t, 26, ClampProgress(40, 26))
	assert.Equal(t, 0, ClampProgress(-2, 26))
	assert.Equal(t, 40, ClampProgress(40, 0))
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusWatching)
	s.Add(anime(2, "Trigun", 26), domain.StatusWatching)

	s.Remove(1)

	assert.False(t, s.Contains(1))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].AnimeID)
}

func TestToggleFavorite(t *testing.T) {
	t.Run("creates favorite when absent", func(t *testing.T) {
		s, _ := newTestStore(t)
		e := s.ToggleFavorite(anime(7, "Mushishi", 26))
		assert.Equal(t, domain.StatusFavorites, e.Status)
		assert.Equal(t, 1, s.Len())
		assert.True(t, s.IsFavorite(7))
	})

	t.Run("demotes favorite to planned", func(t *testing.T) {
		s, _ := newTestStore(t)
		item := anime(7, "Mushishi", 26)
		s.ToggleFavorite(item)
		e := s.ToggleFavorite(item)
		assert.Equal(t, domain.StatusPlanned, e.Status)
		assert.Equal(t, 1, s.Len())
		assert.False(t, s.IsFavorite(7))
	})

	t.Run("overwrites other status", func(t *testing.T) {
		s, _ := newTestStore(t)
		item := anime(7, "Mushishi", 26)
		s.Add(item, domain.StatusWatching)
		s.UpdateProgress(7, 10)

		e := s.ToggleFavorite(item)
		assert.Equal(t, domain.StatusFavorites, e.Status)
		assert.Equal(t, 10, e.Progress)
		assert.Empty(t, s.ItemsByStatus(domain.StatusWatching))
	})
}

func TestItemsByStatusKeepsInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(anime(3, "c", 12), domain.StatusPlanned)
	s.Add(anime(1, "a", 12), domain.StatusWatching)
	s.Add(anime(2, "b", 12), domain.StatusPlanned)

	planned := s.ItemsByStatus(domain.StatusPlanned)
	require.Len(t, planned, 2)
	assert.Equal(t, 3, planned[0].AnimeID)
	assert.Equal(t, 2, planned[1].AnimeID)
	assert.Empty(t, s.ItemsByStatus(domain.StatusCompleted))
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, domain.ListStats{}, s.Stats())

	s.Add(anime(1, "a", 12), domain.StatusWatching)
	s.UpdateProgress(1, 5)
	s.Add(anime(2, "b", 12), domain.StatusCompleted)
	s.UpdateProgress(2, 12)
	s.UpdateRating(2, rating(4))
	s.Add(anime(3, "c", 12), domain.StatusCompleted)
	s.UpdateProgress(3, 3)
	s.UpdateRating(3, rating(5))

	assert.Equal(t, domain.ListStats{
		Total:         3,
		Watching:      1,
		Completed:     2,
		TotalEpisodes: 20,
		AverageRating: 4.5,
	}, s.Stats())
}

func TestStatsRoundsAverage(t *testing.T) {
	s, _ := newTestStore(t)
	for id, r := range map[int]int{1: 5, 2: 4, 3: 4} {
		s.Add(anime(id, "x", 12), domain.StatusCompleted)
		s.UpdateRating(id, rating(r))
	}
	assert.Equal(t, 4.3, s.Stats().AverageRating)
}

func TestPersistenceRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusWatching)
	s.UpdateProgress(1, 5)
	s.Add(anime(2, "Trigun", 26), domain.StatusCompleted)
	s.UpdateRating(2, rating(4))
	s.UpdateNote(2, "great ending")
	s.ToggleFavorite(anime(3, "Mushishi", 26))

	blob, err := s.Marshal()
	require.NoError(t, err)

	blobs := storage.NewMemoryStore()
	require.NoError(t, blobs.Put(context.Background(), domain.ListStorageKey, blob))

	restored, err := Load(context.Background(), zerolog.Nop(), blobs, nil)
	require.NoError(t, err)
	assert.Equal(t, s.Items(), restored.Items())
	assert.Equal(t, s.Stats(), restored.Stats())
}

func TestLoadMissingKeyYieldsEmptyStore(t *testing.T) {
	s, err := Load(context.Background(), zerolog.Nop(), storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestLoadRejectsCorruptBlob(t *testing.T) {
	blobs := storage.NewMemoryStore()
	require.NoError(t, blobs.Put(context.Background(), domain.ListStorageKey, []byte(`{not json`)))

	_, err := Load(context.Background(), zerolog.Nop(), blobs, nil)
	assert.Error(t, err)
}

func TestMutationsReachStorageThroughWriter(t *testing.T) {
	blobs := storage.NewMemoryStore()
	w := storage.NewWriter(zerolog.Nop(), blobs, domain.ListStorageKey)
	s := NewStore(zerolog.Nop(), w)

	s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusWatching)
	s.UpdateProgress(1, 9)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	restored, err := Load(ctx, zerolog.Nop(), blobs, nil)
	require.NoError(t, err)
	e, ok := restored.Item(1)
	require.True(t, ok)
	assert.Equal(t, 9, e.Progress)
}

func TestParseListStatus(t *testing.T) {
	status, err := domain.ParseListStatus(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status)

	_, err = domain.ParseListStatus("dropped")
	assert.Error(t, err)
}

func TestReplace(t *testing.T) {
	s, rec := newTestStore(t)
	s.Add(anime(1, "Cowboy Bebop", 26), domain.StatusWatching)

	s.Replace([]domain.ListEntry{
		{AnimeID: 2, Title: "Trigun", Status: domain.StatusPlanned},
		{AnimeID: 3, Title: "Mushishi", Status: domain.StatusCompleted},
		{AnimeID: 2, Title: "Trigun", Status: domain.StatusCompleted},
	})

	assert.False(t, s.Contains(1))
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].AnimeID)
	assert.Equal(t, domain.StatusCompleted, items[0].Status)
	assert.Equal(t, 2, rec.count())
}
