package domain

import (
	"fmt"
	"strings"
	"time"
)

// Language is the preferred audio version
type Language string

const (
	LanguageAny Language = "any"
	LanguageSub Language = "sub"
	LanguageDub Language = "dub"
)

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LanguageAny, LanguageSub, LanguageDub:
		return l, nil
	}
	return "", fmt.Errorf("invalid language: %q (must be 'any', 'sub', or 'dub')", s)
}

// Reminder asks to be notified ahead of an anime's weekly broadcast
type Reminder struct {
	ID           string        `json:"id"`
	AnimeID      int           `json:"anime_id"`
	Title        string        `json:"title"`
	Broadcast    Broadcast     `json:"broadcast"`
	Lead         time.Duration `json:"lead"`
	Enabled      bool          `json:"enabled"`
	CreatedAt    time.Time     `json:"created_at"`
	LastNotified *time.Time    `json:"last_notified,omitempty"`
}

// Preferences is the persisted preferences document
type Preferences struct {
	Language        Language         `json:"language"`
	Reminders       map[int]Reminder `json:"reminders"`
	WatchedEpisodes map[int][]int    `json:"watched_episodes"`
}
