package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/jikan"
	"github.com/varoOP/animetrack/internal/list"
)

// Catalog is the part of the gateway the API serves
type Catalog interface {
	GetTopAnime(ctx context.Context, page int, filter jikan.TopFilter) (*jikan.AnimeList, error)
	GetSeasonalAnime(ctx context.Context, page int) (*jikan.AnimeList, error)
	GetSeason(ctx context.Context, year int, season string, page int) (*jikan.AnimeList, error)
	SearchAnime(ctx context.Context, query string, page int, opts jikan.SearchOptions) (*jikan.AnimeList, error)
	GetAnimeByID(ctx context.Context, id int) (*domain.Anime, error)
	GetAnimeByGenre(ctx context.Context, genreID, page int) (*jikan.AnimeList, error)
	GetSchedule(ctx context.Context, day string) (*jikan.AnimeList, error)
	GetGenres(ctx context.Context) ([]domain.Genre, error)
	GetAnimeRecommendations(ctx context.Context, id int) ([]domain.Recommendation, error)
}

// Handler serves the catalog and the user's list as JSON
type Handler struct {
	log     zerolog.Logger
	catalog Catalog
	list    *list.Store
	health  func(ctx context.Context) error
}

type HandlerOption func(*Handler)

// WithHealthCheck sets the check behind /api/health
func WithHealthCheck(fn func(ctx context.Context) error) HandlerOption {
	return func(h *Handler) {
		h.health = fn
	}
}

func NewHandler(log zerolog.Logger, catalog Catalog, store *list.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		log:     log.With().Str("module", "api").Logger(),
		catalog: catalog,
		list:    store,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router with every endpoint registered
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	a.HandleFunc("/anime/top", h.TopAnime).Methods(http.MethodGet)
	a.HandleFunc("/anime/seasonal", h.SeasonalAnime).Methods(http.MethodGet)
	a.HandleFunc("/anime/search", h.SearchAnime).Methods(http.MethodGet)
	a.HandleFunc("/anime/schedule", h.Schedule).Methods(http.MethodGet)
	a.HandleFunc("/anime/genres", h.Genres).Methods(http.MethodGet)
	a.HandleFunc("/anime/{id:[0-9]+}", h.Anime).Methods(http.MethodGet)
	a.HandleFunc("/anime/{id:[0-9]+}/recommendations", h.Recommendations).Methods(http.MethodGet)
	a.HandleFunc("/genres/{id:[0-9]+}/anime", h.AnimeByGenre).Methods(http.MethodGet)

	a.HandleFunc("/list", h.ListItems).Methods(http.MethodGet)
	a.HandleFunc("/list", h.AddItem).Methods(http.MethodPost)
	a.HandleFunc("/list/stats", h.ListStats).Methods(http.MethodGet)
	a.HandleFunc("/list/{id:[0-9]+}", h.ListItem).Methods(http.MethodGet)
	a.HandleFunc("/list/{id:[0-9]+}", h.UpdateItem).Methods(http.MethodPatch)
	a.HandleFunc("/list/{id:[0-9]+}", h.RemoveItem).Methods(http.MethodDelete)
	a.HandleFunc("/list/{id:[0-9]+}/favorite", h.ToggleFavorite).Methods(http.MethodPost)

	return r
}

// NewServer wraps handler in an http.Server with sane timeouts
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// catalog requests may wait behind the queue
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  time.Minute,
	}
}

// Health reports whether storage is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeCatalogError maps gateway failures to status codes
func (h *Handler) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case jikan.IsNotFound(err):
		writeJSONError(w, "anime not found", http.StatusNotFound)
	case errors.Is(err, jikan.ErrInvalidArgument):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		h.log.Warn().Err(err).Msg("catalog request failed")
		writeJSONError(w, jikan.ErrUnavailable.Error(), http.StatusServiceUnavailable)
	}
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
