package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
)

func TestFileStorePath(t *testing.T) {
	s := NewFileStore(zerolog.Nop(), afero.NewMemMapFs(), "/data")
	assert.Equal(t, "/data/animetrack_list.json", s.Path(domain.ListStorageKey))
	assert.Equal(t, "/data/animetrack_preferences.json", s.Path(domain.PreferencesStorageKey))
}

func TestFileStoreGetMissing(t *testing.T) {
	s := NewFileStore(zerolog.Nop(), afero.NewMemMapFs(), "/data")
	_, err := s.Get(context.Background(), domain.ListStorageKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileStorePutGet(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(zerolog.Nop(), fs, "/data/nested")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, domain.ListStorageKey, []byte(`[]`)))
	require.NoError(t, s.Put(ctx, domain.ListStorageKey, []byte(`[{"anime_id":1}]`)))

	got, err := s.Get(ctx, domain.ListStorageKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"anime_id":1}]`, string(got))

	exists, err := afero.Exists(fs, s.Path(domain.ListStorageKey)+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStoreRejectsDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(zerolog.Nop(), fs, "/data")
	require.NoError(t, fs.MkdirAll(s.Path("k"), 0755))

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestFileStoreReadOnlyFs(t *testing.T) {
	s := NewFileStore(zerolog.Nop(), afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data")
	assert.Error(t, s.Put(context.Background(), "k", []byte("v")))
}

func TestFileStorePing(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore(zerolog.Nop(), fs, "/data")
	require.NoError(t, s.Ping(context.Background()))

	ok, err := afero.DirExists(fs, "/data")
	require.NoError(t, err)
	assert.True(t, ok)

	ro := NewFileStore(zerolog.Nop(), afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data")
	assert.Error(t, ro.Ping(context.Background()))
}
