package list

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
)

// Persister receives a serialized snapshot after every mutation
type Persister interface {
	Enqueue(blob []byte)
}

// Store holds the user's list in memory. Mutations never fail: updates on a
// missing entry are no-ops, and persistence is handed off to the Persister
// without waiting for it.
type Store struct {
	log       zerolog.Logger
	persister Persister
	now       func() time.Time

	mu      sync.RWMutex
	entries map[int]domain.ListEntry
	order   []int
}

type Option func(*Store)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store. persister may be nil.
func NewStore(log zerolog.Logger, persister Persister, opts ...Option) *Store {
	s := &Store{
		log:       log.With().Str("module", "list").Logger(),
		persister: persister,
		now:       func() time.Time { return time.Now().UTC().Round(0) },
		entries:   make(map[int]domain.ListEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the store from blobs. A missing key yields an empty store.
func Load(ctx context.Context, log zerolog.Logger, blobs domain.BlobStore, persister Persister, opts ...Option) (*Store, error) {
	s := NewStore(log, persister, opts...)

	blob, err := blobs.Get(ctx, domain.ListStorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read list")
	}

	if err := s.Unmarshal(blob); err != nil {
		return nil, err
	}
	s.log.Debug().Int("count", len(s.order)).Msg("list loaded")
	return s, nil
}

// Marshal serializes the entries in insertion order
func (s *Store) Marshal() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marshalLocked()
}

func (s *Store) marshalLocked() ([]byte, error) {
	entries := make([]domain.ListEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	return json.Marshal(entries)
}

// Unmarshal replaces the entries with the ones in blob
func (s *Store) Unmarshal(blob []byte) error {
	var entries []domain.ListEntry
	if err := json.Unmarshal(blob, &entries); err != nil {
		return errors.Wrap(err, "failed to unmarshal list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked(entries)
	return nil
}

// Replace swaps the whole list for entries and persists the result. Later
// duplicates of an ID win.
func (s *Store) Replace(entries []domain.ListEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked(entries)
	s.persistLocked()
	s.log.Info().Int("count", len(s.order)).Msg("list replaced")
}

func (s *Store) resetLocked(entries []domain.ListEntry) {
	s.entries = make(map[int]domain.ListEntry, len(entries))
	s.order = nil
	for _, e := range entries {
		if _, dup := s.entries[e.AnimeID]; !dup {
			s.order = append(s.order, e.AnimeID)
		}
		s.entries[e.AnimeID] = e
	}
}

// persistLocked emits a write task for the current state; s.mu must be held.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	blob, err := s.marshalLocked()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to serialize list")
		return
	}
	s.persister.Enqueue(blob)
}

func (s *Store) newEntry(item domain.Anime, status domain.ListStatus) domain.ListEntry {
	now := s.now()
	return domain.ListEntry{
		AnimeID:   item.MalID,
		Title:     item.DisplayTitle(),
		ImageURL:  item.ImageURL(),
		Episodes:  item.EpisodeCount(),
		Broadcast: item.Broadcast,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Store) putLocked(e domain.ListEntry) {
	if _, ok := s.entries[e.AnimeID]; !ok {
		s.order = append(s.order, e.AnimeID)
	}
	s.entries[e.AnimeID] = e
}

// Add creates an entry for item, replacing any existing one. Progress starts
// at 0 and the rating is cleared.
func (s *Store) Add(item domain.Anime, status domain.ListStatus) domain.ListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.newEntry(item, status)
	s.putLocked(e)
	s.persistLocked()

	s.log.Debug().Int("anime_id", e.AnimeID).Str("status", string(status)).Msg("added to list")
	return e
}

// Remove deletes the entry for id if present
func (s *Store) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.persistLocked()

	s.log.Debug().Int("anime_id", id).Msg("removed from list")
}

// update applies fn to the entry for id and bumps UpdatedAt. It reports
// whether the entry existed.
func (s *Store) update(id int, fn func(*domain.ListEntry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false
	}
	fn(&e)
	e.UpdatedAt = s.now()
	s.entries[id] = e
	s.persistLocked()
	return true
}

// UpdateStatus sets the status of an existing entry
func (s *Store) UpdateStatus(id int, status domain.ListStatus) {
	s.update(id, func(e *domain.ListEntry) { e.Status = status })
}

// UpdateProgress sets the episode progress of an existing entry. Bounds are
// the caller's responsibility; see ClampProgress.
func (s *Store) UpdateProgress(id int, progress int) {
	s.update(id, func(e *domain.ListEntry) { e.Progress = progress })
}

// UpdateRating sets or, with nil, clears the rating of an existing entry
func (s *Store) UpdateRating(id int, rating *int) {
	s.update(id, func(e *domain.ListEntry) {
		if rating == nil {
			e.Rating = nil
			return
		}
		r := *rating
		e.Rating = &r
	})
}

// UpdateNote sets the free-text note of an existing entry
func (s *Store) UpdateNote(id int, note string) {
	s.update(id, func(e *domain.ListEntry) { e.Note = note })
}

// Changes holds the fields Apply sets. Nil fields are left as they are;
// Rating is only touched when SetRating is true, so a nil Rating clears it.
type Changes struct {
	Status    *domain.ListStatus
	Progress  *int
	SetRating bool
	Rating    *int
	Note      *string
}

// Apply sets every field of c on the entry for id as a single mutation and
// returns the result. ok is false when id is not on the list.
func (s *Store) Apply(id int, c Changes) (entry domain.ListEntry, ok bool) {
	ok = s.update(id, func(e *domain.ListEntry) {
		if c.Status != nil {
			e.Status = *c.Status
		}
		if c.Progress != nil {
			e.Progress = *c.Progress
		}
		if c.SetRating {
			e.Rating = nil
			if c.Rating != nil {
				r := *c.Rating
				e.Rating = &r
			}
		}
		if c.Note != nil {
			e.Note = *c.Note
		}
		entry = *e
	})
	return entry, ok
}

// ToggleFavorite creates a favorites entry when item is not listed, demotes
// a favorite to planned, and otherwise turns the entry into a favorite. The
// previous status is not kept.
func (s *Store) ToggleFavorite(item domain.Anime) domain.ListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[item.MalID]
	switch {
	case !ok:
		e = s.newEntry(item, domain.StatusFavorites)
	case e.Status == domain.StatusFavorites:
		e.Status = domain.StatusPlanned
		e.UpdatedAt = s.now()
	default:
		e.Status = domain.StatusFavorites
		e.UpdatedAt = s.now()
	}
	s.putLocked(e)
	s.persistLocked()

	s.log.Debug().Int("anime_id", e.AnimeID).Str("status", string(e.Status)).Msg("favorite toggled")
	return e
}

// ItemsByStatus returns the entries with status, in insertion order
func (s *Store) ItemsByStatus(status domain.ListStatus) []domain.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ListEntry{}
	for _, id := range s.order {
		if e := s.entries[id]; e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Items returns every entry in insertion order
func (s *Store) Items() []domain.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ListEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

func (s *Store) Item(id int) (domain.ListEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *Store) Contains(id int) bool {
	_, ok := s.Item(id)
	return ok
}

func (s *Store) IsFavorite(id int) bool {
	e, ok := s.Item(id)
	return ok && e.Status == domain.StatusFavorites
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats aggregates counts, summed progress and the mean rating rounded to one
// decimal.
func (s *Store) Stats() domain.ListStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ListStats{Total: len(s.entries)}
	ratingSum, rated := 0, 0
	for _, e := range s.entries {
		switch e.Status {
		case domain.StatusWatching:
			stats.Watching++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusPlanned:
			stats.Planned++
		case domain.StatusFavorites:
			stats.Favorites++
		}
		stats.TotalEpisodes += e.Progress
		if e.Rating != nil {
			ratingSum += *e.Rating
			rated++
		}
	}

	if rated > 0 {
		stats.AverageRating = math.Round(float64(ratingSum)/float64(rated)*10) / 10
	}
	return stats
}

// ClampProgress bounds progress to [0, episodes]; episodes <= 0 means the
// count is unknown and only the lower bound applies.
func ClampProgress(progress, episodes int) int {
	if progress < 0 {
		return 0
	}
	if episodes > 0 && progress > episodes {
		return episodes
	}
	return progress
}

// ValidRating reports whether r is an acceptable rating
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}
