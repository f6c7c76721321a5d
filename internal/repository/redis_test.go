package repository

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animetrack/internal/domain"
)

func TestRedisStoreClosedClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	s := NewRedisStoreFromClient(zerolog.Nop(), client)
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), domain.ListStorageKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, redis.ErrClosed)

	err = s.Put(context.Background(), domain.ListStorageKey, []byte(`[]`))
	assert.ErrorIs(t, err, redis.ErrClosed)

	assert.ErrorIs(t, s.Ping(context.Background()), redis.ErrClosed)
}
