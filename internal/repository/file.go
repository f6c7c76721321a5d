package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/varoOP/animetrack/internal/domain"
)

// FileStore implements domain.BlobStore with one JSON file per key
type FileStore struct {
	log zerolog.Logger
	fs  afero.Fs
	dir string
}

// NewFileStore stores blobs under dir on fs
func NewFileStore(log zerolog.Logger, fs afero.Fs, dir string) *FileStore {
	return &FileStore{
		log: log.With().Str("module", "repository").Logger(),
		fs:  fs,
		dir: dir,
	}
}

var _ domain.BlobStore = (*FileStore)(nil)

var keyReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_")

// Path returns the file that holds key
func (r *FileStore) Path(key string) string {
	return filepath.Join(r.dir, keyReplacer.Replace(key)+".json")
}

// Get reads the blob for key
func (r *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path := r.Path(key)

	info, err := r.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	body, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return body, nil
}

// Put replaces the blob for key. The file is written next to its final
// path and renamed into place so a crash never leaves a torn file.
func (r *FileStore) Put(ctx context.Context, key string, value []byte) error {
	if err := r.fs.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", r.dir, err)
	}

	path := r.Path(key)
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, value, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", tmp, err)
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}

	r.log.Debug().Str("path", path).Int("size", len(value)).Msg("stored blob")
	return nil
}

// Ping checks that the data directory exists or can be created
func (r *FileStore) Ping(ctx context.Context) error {
	if err := r.fs.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("data directory %s is not usable: %w", r.dir, err)
	}
	return nil
}
