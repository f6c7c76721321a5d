package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
)

// BlobRepo implements domain.BlobStore on top of the blobs table
type BlobRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewBlobRepo(log zerolog.Logger, db *DB) *BlobRepo {
	return &BlobRepo{
		log: log.With().Str("repo", "blob").Logger(),
		db:  db,
	}
}

var _ domain.BlobStore = (*BlobRepo)(nil)

func (r *BlobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	queryBuilder := r.db.squirrel.
		Select("value").
		From("blobs").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	var value []byte
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	return value, nil
}

func (r *BlobRepo) Put(ctx context.Context, key string, value []byte) error {
	queryBuilder := r.db.squirrel.
		Replace("blobs").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC().Format(time.RFC3339))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Str("key", key).Int("size", len(value)).Msg("Put")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// Ping checks that the database answers
func (r *BlobRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
