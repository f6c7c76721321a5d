package preferences

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
)

// Persister receives a serialized snapshot after every mutation
type Persister interface {
	Enqueue(blob []byte)
}

// Store holds the user's preferences: language filter, broadcast reminders
// and watched episode markers.
type Store struct {
	log       zerolog.Logger
	persister Persister
	now       func() time.Time
	newID     func() string

	mu    sync.RWMutex
	prefs domain.Preferences
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides how reminder IDs are minted
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

func empty() domain.Preferences {
	return domain.Preferences{
		Language:        domain.LanguageAny,
		Reminders:       make(map[int]domain.Reminder),
		WatchedEpisodes: make(map[int][]int),
	}
}

func NewStore(log zerolog.Logger, persister Persister, opts ...Option) *Store {
	s := &Store{
		log:       log.With().Str("module", "preferences").Logger(),
		persister: persister,
		now:       func() time.Time { return time.Now().UTC().Round(0) },
		newID:     func() string { return uuid.New().String() },
		prefs:     empty(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads preferences from blobs. A missing key yields the defaults.
func Load(ctx context.Context, log zerolog.Logger, blobs domain.BlobStore, persister Persister, opts ...Option) (*Store, error) {
	s := NewStore(log, persister, opts...)

	blob, err := blobs.Get(ctx, domain.PreferencesStorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read preferences")
	}

	if err := s.Unmarshal(blob); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Marshal() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.prefs)
}

func (s *Store) Unmarshal(blob []byte) error {
	prefs := empty()
	if err := json.Unmarshal(blob, &prefs); err != nil {
		return errors.Wrap(err, "failed to unmarshal preferences")
	}
	if prefs.Language == "" {
		prefs.Language = domain.LanguageAny
	}
	if prefs.Reminders == nil {
		prefs.Reminders = make(map[int]domain.Reminder)
	}
	if prefs.WatchedEpisodes == nil {
		prefs.WatchedEpisodes = make(map[int][]int)
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	blob, err := json.Marshal(s.prefs)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to serialize preferences")
		return
	}
	s.persister.Enqueue(blob)
}

func (s *Store) Language() domain.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Language
}

func (s *Store) SetLanguage(l domain.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prefs.Language == l {
		return
	}
	s.prefs.Language = l
	s.persistLocked()
}

// AddReminder enables a reminder for item, firing lead before each
// broadcast. Re-adding keeps the reminder ID and creation time.
func (s *Store) AddReminder(item domain.Anime, lead time.Duration) domain.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.prefs.Reminders[item.MalID]
	if !ok {
		r = domain.Reminder{
			ID:        s.newID(),
			AnimeID:   item.MalID,
			CreatedAt: s.now(),
		}
	}
	r.Title = item.DisplayTitle()
	r.Broadcast = item.Broadcast
	r.Lead = lead
	r.Enabled = true

	s.prefs.Reminders[item.MalID] = r
	s.persistLocked()

	s.log.Debug().Int("anime_id", item.MalID).Str("id", r.ID).Dur("lead", lead).Msg("reminder set")
	return r
}

func (s *Store) RemoveReminder(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prefs.Reminders[id]; !ok {
		return
	}
	delete(s.prefs.Reminders, id)
	s.persistLocked()
}

// Reminders returns every reminder ordered by anime ID
func (s *Store) Reminders() []domain.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Reminder, 0, len(s.prefs.Reminders))
	for _, r := range s.prefs.Reminders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnimeID < out[j].AnimeID })
	return out
}

func (s *Store) Reminder(id int) (domain.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.prefs.Reminders[id]
	return r, ok
}

// MarkNotified records that the reminder for id fired at at
func (s *Store) MarkNotified(id int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.prefs.Reminders[id]
	if !ok {
		return
	}
	at = at.UTC().Round(0)
	r.LastNotified = &at
	s.prefs.Reminders[id] = r
	s.persistLocked()
}

// ToggleEpisodeWatched flips the watched marker of episode ep and reports
// the new state.
func (s *Store) ToggleEpisodeWatched(id, ep int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	eps := s.prefs.WatchedEpisodes[id]
	i := sort.SearchInts(eps, ep)
	watched := i < len(eps) && eps[i] == ep
	if watched {
		eps = append(eps[:i:i], eps[i+1:]...)
	} else {
		eps = append(eps[:i:i], append([]int{ep}, eps[i:]...)...)
	}

	if len(eps) == 0 {
		delete(s.prefs.WatchedEpisodes, id)
	} else {
		s.prefs.WatchedEpisodes[id] = eps
	}
	s.persistLocked()
	return !watched
}

func (s *Store) IsEpisodeWatched(id, ep int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eps := s.prefs.WatchedEpisodes[id]
	i := sort.SearchInts(eps, ep)
	return i < len(eps) && eps[i] == ep
}

// WatchedEpisodes returns the watched episode numbers of id in ascending order
func (s *Store) WatchedEpisodes(id int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int{}, s.prefs.WatchedEpisodes[id]...)
}

func (s *Store) ClearWatched(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prefs.WatchedEpisodes[id]; !ok {
		return
	}
	delete(s.prefs.WatchedEpisodes, id)
	s.persistLocked()
}
