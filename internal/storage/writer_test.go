package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
)

type flakyStore struct {
	*MemoryStore
	mu   sync.Mutex
	fail bool
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Put(ctx, key, value)
}

func (f *flakyStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func TestWriterPersistsLatestSnapshot(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(zerolog.Nop(), store, domain.ListStorageKey)

	for _, blob := range []string{`[1]`, `[1,2]`, `[1,2,3]`} {
		w.Enqueue([]byte(blob))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	got, err := store.Get(context.Background(), domain.ListStorageKey)
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(got))
	assert.LessOrEqual(t, store.Puts(), 3)
}

func TestWriterSwallowsFailures(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore(), fail: true}
	w := NewWriter(zerolog.Nop(), store, domain.PreferencesStorageKey)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	w.Enqueue([]byte(`{"language":"sub"}`))
	require.NoError(t, w.Flush(ctx))

	_, err := store.Get(ctx, domain.PreferencesStorageKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	store.setFail(false)
	w.Enqueue([]byte(`{"language":"dub"}`))
	require.NoError(t, w.Close(ctx))

	got, err := store.Get(ctx, domain.PreferencesStorageKey)
	require.NoError(t, err)
	assert.Equal(t, `{"language":"dub"}`, string(got))
}

func TestWriterDropsWritesAfterClose(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(zerolog.Nop(), store, domain.ListStorageKey)
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()))

	w.Enqueue([]byte(`[]`))
	assert.Zero(t, store.Puts())
	assert.NoError(t, w.Flush(context.Background()))
}
