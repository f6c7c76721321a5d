package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/varoOP/animetrack/internal/config"
	"github.com/varoOP/animetrack/internal/database"
	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/jikan"
	"github.com/varoOP/animetrack/internal/list"
	"github.com/varoOP/animetrack/internal/logger"
	"github.com/varoOP/animetrack/internal/notification"
	"github.com/varoOP/animetrack/internal/preferences"
	"github.com/varoOP/animetrack/internal/repository"
	"github.com/varoOP/animetrack/internal/schedule"
	"github.com/varoOP/animetrack/internal/storage"
)

// App represents the main application with all dependencies initialized
type App struct {
	log    zerolog.Logger
	config *domain.Config

	Catalog     *jikan.Client
	List        *list.Store
	Preferences *preferences.Store

	blobs               domain.BlobStore
	notificationService domain.NotificationService
	listWriter          *storage.Writer
	prefsWriter         *storage.Writer

	closers []io.Closer
}

type options struct {
	blobs      domain.BlobStore
	httpClient *http.Client
	notifier   domain.NotificationService
}

type Option func(*options)

// WithBlobStore bypasses the configured storage backend
func WithBlobStore(b domain.BlobStore) Option {
	return func(o *options) { o.blobs = b }
}

// WithHTTPClient sets the client used for catalog and webhook requests
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithNotifier(n domain.NotificationService) Option {
	return func(o *options) { o.notifier = n }
}

// NewApp loads configuration and logging from viper and wires the app
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, logCloser, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := New(ctx, log, cfg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	a.closers = append([]io.Closer{logCloser}, a.closers...)
	return a, nil
}

// New wires the app from an explicit config
func New(ctx context.Context, log zerolog.Logger, cfg *domain.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{
		log:    log.With().Str("module", "app").Logger(),
		config: cfg,
	}

	blobs := o.blobs
	if blobs == nil {
		var (
			closer io.Closer
			err    error
		)
		blobs, closer, err = openBlobStore(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer)
	}

	a.blobs = blobs
	a.listWriter = storage.NewWriter(log, blobs, domain.ListStorageKey)
	a.prefsWriter = storage.NewWriter(log, blobs, domain.PreferencesStorageKey)

	var err error
	a.List, err = list.Load(ctx, log, blobs, a.listWriter)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to load list: %w", err)
	}
	a.Preferences, err = preferences.Load(ctx, log, blobs, a.prefsWriter)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	a.Catalog = jikan.NewClient(log, cfg, o.httpClient)

	a.notificationService = o.notifier
	if a.notificationService == nil {
		a.notificationService = notification.NewService(log, cfg.DiscordWebhookURL, o.httpClient)
	}

	return a, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openBlobStore opens the configured storage backend
func openBlobStore(ctx context.Context, log zerolog.Logger, cfg *domain.Config) (domain.BlobStore, io.Closer, error) {
	switch cfg.StorageBackend {
	case domain.StorageSQLite, "":
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to create data directory %s", cfg.DataDir)
		}
		db, err := database.NewDB(cfg.DataDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return database.NewBlobRepo(log, db), db, nil

	case domain.StorageFile:
		return repository.NewFileStore(log, afero.NewOsFs(), cfg.DataDir), closerFunc(func() error { return nil }), nil

	case domain.StorageRedis:
		store, err := repository.NewRedisStore(ctx, log, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return nil, nil, errors.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
}

func (a *App) Config() *domain.Config {
	return a.config
}

func (a *App) Logger() zerolog.Logger {
	return a.log
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks that the storage backend is reachable. Backends without a
// health check always pass.
func (a *App) Ping(ctx context.Context) error {
	p, ok := a.blobs.(pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return errors.Wrap(err, "storage unavailable")
	}
	return nil
}

// AddToList looks id up in the catalog and adds it with status
func (a *App) AddToList(ctx context.Context, id int, status domain.ListStatus) (domain.ListEntry, error) {
	item, err := a.Catalog.GetAnimeByID(ctx, id)
	if err != nil {
		return domain.ListEntry{}, err
	}
	return a.List.Add(*item, status), nil
}

// ToggleFavorite looks id up in the catalog and toggles its favorite status
func (a *App) ToggleFavorite(ctx context.Context, id int) (domain.ListEntry, error) {
	item, err := a.Catalog.GetAnimeByID(ctx, id)
	if err != nil {
		return domain.ListEntry{}, err
	}
	return a.List.ToggleFavorite(*item), nil
}

// Remind looks id up in the catalog and sets a reminder lead before each
// broadcast. Anime without a known broadcast slot are rejected.
func (a *App) Remind(ctx context.Context, id int, lead time.Duration) (domain.Reminder, error) {
	item, err := a.Catalog.GetAnimeByID(ctx, id)
	if err != nil {
		return domain.Reminder{}, err
	}
	if _, ok := schedule.NextBroadcast(item.Broadcast, time.Now()); !ok {
		return domain.Reminder{}, errors.Errorf("%s has no broadcast schedule", item.DisplayTitle())
	}
	return a.Preferences.AddReminder(*item, lead), nil
}

// CheckReminders sends every enabled reminder whose next broadcast falls
// within its lead time and that has not fired for that broadcast yet. It
// returns how many were sent.
func (a *App) CheckReminders(ctx context.Context, now time.Time) (int, error) {
	sent, failed := 0, 0
	for _, r := range a.Preferences.Reminders() {
		if !r.Enabled {
			continue
		}
		next, ok := schedule.NextBroadcast(r.Broadcast, now)
		if !ok {
			a.log.Debug().Int("anime_id", r.AnimeID).Msg("reminder has no usable broadcast slot")
			continue
		}
		if !schedule.Due(next, now, r.Lead, r.LastNotified) {
			continue
		}

		if err := a.notificationService.SendReminder(ctx, r, next); err != nil {
			a.log.Warn().Err(err).Int("anime_id", r.AnimeID).Msg("Failed to send reminder")
			failed++
			continue
		}
		a.Preferences.MarkNotified(r.AnimeID, now)
		sent++

		a.log.Info().Int("anime_id", r.AnimeID).Str("title", r.Title).Time("airs_at", next).Msg("reminder sent")
	}

	if failed > 0 {
		return sent, errors.Errorf("%d reminders could not be sent", failed)
	}
	return sent, nil
}

// Close stops the catalog queue, flushes pending writes and releases
// storage. It is safe to call on a partially constructed App.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.Catalog != nil {
		keep(a.Catalog.Close())
	}
	if a.listWriter != nil {
		keep(a.listWriter.Close(ctx))
	}
	if a.prefsWriter != nil {
		keep(a.prefsWriter.Close(ctx))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		keep(a.closers[i].Close())
	}
	a.closers = nil
	return firstErr
}
