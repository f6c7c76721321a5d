package domain

import "strings"

// Anime stores catalog information about an anime as returned by Jikan
type Anime struct {
	MalID          int       `json:"mal_id"`
	URL            string    `json:"url,omitempty"`
	Images         Images    `json:"images"`
	Title          string    `json:"title"`
	TitleEnglish   string    `json:"title_english,omitempty"`
	TitleJapanese  string    `json:"title_japanese,omitempty"`
	TitleSynonyms  []string  `json:"title_synonyms,omitempty"`
	Type           string    `json:"type,omitempty"`
	Source         string    `json:"source,omitempty"`
	Episodes       *int      `json:"episodes"`
	Status         string    `json:"status,omitempty"`
	Airing         bool      `json:"airing"`
	Duration       string    `json:"duration,omitempty"`
	Rating         string    `json:"rating,omitempty"`
	Score          *float64  `json:"score"`
	ScoredBy       *int      `json:"scored_by"`
	Rank           *int      `json:"rank"`
	Popularity     int       `json:"popularity,omitempty"`
	Synopsis       string    `json:"synopsis,omitempty"`
	Season         string    `json:"season,omitempty"`
	Year           *int      `json:"year"`
	Broadcast      Broadcast `json:"broadcast"`
	Studios        []Tag     `json:"studios,omitempty"`
	Genres         []Tag     `json:"genres,omitempty"`
	ExplicitGenres []Tag     `json:"explicit_genres,omitempty"`
	Themes         []Tag     `json:"themes,omitempty"`
	Demographics   []Tag     `json:"demographics,omitempty"`
}

// Images holds the jpg and webp variants of a cover
type Images struct {
	JPG  ImageSet `json:"jpg"`
	WebP ImageSet `json:"webp"`
}

type ImageSet struct {
	ImageURL      string `json:"image_url,omitempty"`
	SmallImageURL string `json:"small_image_url,omitempty"`
	LargeImageURL string `json:"large_image_url,omitempty"`
}

// Tag is a named catalog reference (genre, theme, studio, ...)
type Tag struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
}

// Broadcast is the weekly airing slot. Day and Time are expressed in Timezone,
// which Jikan reports as Asia/Tokyo.
type Broadcast struct {
	Day      string `json:"day,omitempty"`
	Time     string `json:"time,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	String   string `json:"string,omitempty"`
}

// Known reports whether both day and time are set.
func (b Broadcast) Known() bool {
	return b.Day != "" && b.Time != ""
}

// DisplayTitle prefers the English title and falls back to the default one.
func (a Anime) DisplayTitle() string {
	if strings.TrimSpace(a.TitleEnglish) != "" {
		return a.TitleEnglish
	}
	return a.Title
}

// ImageURL returns the best available cover URL.
func (a Anime) ImageURL() string {
	for _, u := range []string{a.Images.JPG.LargeImageURL, a.Images.JPG.ImageURL, a.Images.WebP.LargeImageURL, a.Images.WebP.ImageURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// EpisodeCount returns the number of episodes, or 0 when unknown.
func (a Anime) EpisodeCount() int {
	if a.Episodes == nil {
		return 0
	}
	return *a.Episodes
}

// Genre is an entry of the catalog's genre index
type Genre struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Count int    `json:"count"`
}

// Recommendation is a user recommendation pointing at another anime
type Recommendation struct {
	Entry struct {
		MalID  int    `json:"mal_id"`
		URL    string `json:"url,omitempty"`
		Images Images `json:"images"`
		Title  string `json:"title"`
	} `json:"entry"`
	Votes int `json:"votes"`
}

// Pagination is attached to list responses
type Pagination struct {
	LastVisiblePage int              `json:"last_visible_page"`
	HasNextPage     bool             `json:"has_next_page"`
	CurrentPage     int              `json:"current_page,omitempty"`
	Items           *PaginationItems `json:"items,omitempty"`
}

type PaginationItems struct {
	Count   int `json:"count"`
	Total   int `json:"total"`
	PerPage int `json:"per_page"`
}

// Response is the envelope every Jikan endpoint returns
type Response[T any] struct {
	Data       T           `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
