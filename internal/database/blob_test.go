package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := NewDB(dir, zerolog.Nop())
	require.NoError(t, err)
	return db
}

func TestMigrateSetsVersion(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	version, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	// already current
	require.NoError(t, db.Migrate())
}

func TestBlobRepoGetMissing(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	_, err := NewBlobRepo(zerolog.Nop(), db).Get(context.Background(), domain.ListStorageKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlobRepoPutOverwrites(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	ctx := context.Background()
	repo := NewBlobRepo(zerolog.Nop(), db)

	require.NoError(t, repo.Put(ctx, domain.ListStorageKey, []byte(`[]`)))
	require.NoError(t, repo.Put(ctx, domain.ListStorageKey, []byte(`[{"anime_id":1}]`)))
	require.NoError(t, repo.Put(ctx, domain.PreferencesStorageKey, []byte(`{}`)))

	got, err := repo.Get(ctx, domain.ListStorageKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"anime_id":1}]`, string(got))

	got, err = repo.Get(ctx, domain.PreferencesStorageKey)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestBlobRepoSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db := openTestDB(t, dir)
	require.NoError(t, NewBlobRepo(zerolog.Nop(), db).Put(ctx, "k", []byte("v")))
	require.NoError(t, db.Close())

	db = openTestDB(t, dir)
	defer db.Close()
	got, err := NewBlobRepo(zerolog.Nop(), db).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestBlobRepoPing(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	repo := NewBlobRepo(zerolog.Nop(), db)
	require.NoError(t, repo.Ping(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, repo.Ping(context.Background()))
}
