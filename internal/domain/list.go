package domain

import (
	"fmt"
	"strings"
	"time"
)

// ListStatus is the user's relationship to an anime. Favorites is a status on
// its own, so marking an entry favorite replaces whatever status it had.
type ListStatus string

const (
	StatusWatching  ListStatus = "watching"
	StatusCompleted ListStatus = "completed"
	StatusPlanned   ListStatus = "planned"
	StatusFavorites ListStatus = "favorites"
)

// ListStatuses lists every status in display order
var ListStatuses = []ListStatus{StatusWatching, StatusCompleted, StatusPlanned, StatusFavorites}

func (s ListStatus) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusPlanned, StatusFavorites:
		return true
	}
	return false
}

// ParseListStatus parses a status name, case-insensitively
func ParseListStatus(s string) (ListStatus, error) {
	status := ListStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status: %q (must be 'watching', 'completed', 'planned', or 'favorites')", s)
	}
	return status, nil
}

// ListEntry stores one anime of the user's personal list. Title, image,
// episode count and broadcast are copied from the catalog when the entry is
// created.
type ListEntry struct {
	AnimeID   int        `json:"anime_id" yaml:"animeId"`
	Title     string     `json:"title" yaml:"title"`
	ImageURL  string     `json:"image_url,omitempty" yaml:"imageUrl,omitempty"`
	Episodes  int        `json:"episodes,omitempty" yaml:"episodes,omitempty"`
	Broadcast Broadcast  `json:"broadcast" yaml:"broadcast,omitempty"`
	Status    ListStatus `json:"status" yaml:"status"`
	Progress  int        `json:"progress" yaml:"progress"`
	Rating    *int       `json:"rating" yaml:"rating"`
	Note      string     `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"createdAt"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updatedAt"`
}

// ListStats holds aggregate numbers over the whole list
type ListStats struct {
	Total         int     `json:"total"`
	Watching      int     `json:"watching"`
	Completed     int     `json:"completed"`
	Planned       int     `json:"planned"`
	Favorites     int     `json:"favorites"`
	TotalEpisodes int     `json:"total_episodes"`
	AverageRating float64 `json:"average_rating"`
}
