package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestTTLCacheGetSet(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache(5*time.Minute, WithClock(clock.Now))

	_, ok := c.Get("https://api.jikan.moe/v4/anime/1/full")
	assert.False(t, ok, "empty cache should miss")

	c.Set("https://api.jikan.moe/v4/anime/1/full", []byte(`{"data":{"mal_id":1}}`))

	clock.Advance(4*time.Minute + 59*time.Second)
	payload, ok := c.Get("https://api.jikan.moe/v4/anime/1/full")
	require.True(t, ok)
	assert.Equal(t, `{"data":{"mal_id":1}}`, string(payload))
}

func TestTTLCacheExpiresLazily(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache(5*time.Minute, WithClock(clock.Now))

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	clock.Advance(5 * time.Minute)

	// expired entries stay until read
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCacheOverwriteRefreshesTimestamp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache(time.Minute, WithClock(clock.Now))

	c.Set("k", []byte("old"))
	clock.Advance(50 * time.Second)
	c.Set("k", []byte("new"))
	clock.Advance(50 * time.Second)

	payload, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", string(payload))

	c.Purge()
	assert.Zero(t, c.Len())
}
