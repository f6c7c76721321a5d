package jikan

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/varoOP/animetrack/internal/domain"
)

// TopFilter narrows the top anime ranking
type TopFilter string

const (
	TopAll          TopFilter = ""
	TopAiring       TopFilter = "airing"
	TopUpcoming     TopFilter = "upcoming"
	TopByPopularity TopFilter = "bypopularity"
	TopFavorite     TopFilter = "favorite"
)

func ParseTopFilter(s string) (TopFilter, error) {
	f := TopFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case TopAll, TopAiring, TopUpcoming, TopByPopularity, TopFavorite:
		return f, nil
	}
	return "", fmt.Errorf("%w: filter %q (must be 'airing', 'upcoming', 'bypopularity', or 'favorite')", ErrInvalidArgument, s)
}

// SearchOptions are optional search parameters
type SearchOptions struct {
	Limit   int
	OrderBy string
	Sort    string
	Type    string
	Status  string
	SFW     bool
}

var seasons = map[string]bool{"winter": true, "spring": true, "summer": true, "fall": true}

var scheduleDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"other": true, "unknown": true,
}

type AnimeList = domain.Response[[]domain.Anime]

func pageQuery(page int) url.Values {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// GetTopAnime returns a page of the top ranking
func (c *Client) GetTopAnime(ctx context.Context, page int, filter TopFilter) (*AnimeList, error) {
	q := pageQuery(page)
	if filter != TopAll {
		q.Set("filter", string(filter))
	}

	resp := &AnimeList{}
	if err := c.get(ctx, "/top/anime", q, resp); err != nil {
		return nil, errors.Wrap(err, "failed to get top anime")
	}
	return resp, nil
}

// GetSeasonalAnime returns a page of the currently airing season
func (c *Client) GetSeasonalAnime(ctx context.Context, page int) (*AnimeList, error) {
	resp := &AnimeList{}
	if err := c.get(ctx, "/seasons/now", pageQuery(page), resp); err != nil {
		return nil, errors.Wrap(err, "failed to get seasonal anime")
	}
	return resp, nil
}

// GetSeason returns a page of a given season, e.g. 2024 "spring"
func (c *Client) GetSeason(ctx context.Context, year int, season string, page int) (*AnimeList, error) {
	season = strings.ToLower(strings.TrimSpace(season))
	if !seasons[season] {
		return nil, fmt.Errorf("%w: season %q (must be 'winter', 'spring', 'summer', or 'fall')", ErrInvalidArgument, season)
	}
	if year < 1917 {
		return nil, fmt.Errorf("%w: year %d", ErrInvalidArgument, year)
	}

	resp := &AnimeList{}
	if err := c.get(ctx, fmt.Sprintf("/seasons/%d/%s", year, season), pageQuery(page), resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get season %s %d", season, year)
	}
	return resp, nil
}

// SearchAnime runs a free text search
func (c *Client) SearchAnime(ctx context.Context, query string, page int, opts SearchOptions) (*AnimeList, error) {
	q := pageQuery(page)
	if query = strings.TrimSpace(query); query != "" {
		q.Set("q", query)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.OrderBy != "" {
		q.Set("order_by", opts.OrderBy)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.SFW {
		q.Set("sfw", "true")
	}

	resp := &AnimeList{}
	if err := c.get(ctx, "/anime", q, resp); err != nil {
		return nil, errors.Wrapf(err, "failed to search anime %q", query)
	}
	return resp, nil
}

// GetAnimeByID returns the full record of one anime
func (c *Client) GetAnimeByID(ctx context.Context, id int) (*domain.Anime, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: anime id %d", ErrInvalidArgument, id)
	}

	resp := &domain.Response[domain.Anime]{}
	if err := c.get(ctx, fmt.Sprintf("/anime/%d/full", id), nil, resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get anime %d", id)
	}
	return &resp.Data, nil
}

// GetAnimeByGenre returns the best scored anime of a genre
func (c *Client) GetAnimeByGenre(ctx context.Context, genreID, page int) (*AnimeList, error) {
	if genreID <= 0 {
		return nil, fmt.Errorf("%w: genre id %d", ErrInvalidArgument, genreID)
	}

	q := pageQuery(page)
	q.Set("genres", strconv.Itoa(genreID))
	q.Set("order_by", "score")
	q.Set("sort", "desc")

	resp := &AnimeList{}
	if err := c.get(ctx, "/anime", q, resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get anime for genre %d", genreID)
	}
	return resp, nil
}

// GetSchedule returns the broadcast schedule, optionally for a single day
func (c *Client) GetSchedule(ctx context.Context, day string) (*AnimeList, error) {
	q := url.Values{}
	if day = strings.ToLower(strings.TrimSpace(day)); day != "" {
		if !scheduleDays[day] {
			return nil, fmt.Errorf("%w: day %q", ErrInvalidArgument, day)
		}
		q.Set("filter", day)
	}

	resp := &AnimeList{}
	if err := c.get(ctx, "/schedules", q, resp); err != nil {
		return nil, errors.Wrap(err, "failed to get schedule")
	}
	return resp, nil
}

// GetGenres returns the genre index
func (c *Client) GetGenres(ctx context.Context) ([]domain.Genre, error) {
	resp := &domain.Response[[]domain.Genre]{}
	if err := c.get(ctx, "/genres/anime", nil, resp); err != nil {
		return nil, errors.Wrap(err, "failed to get genres")
	}
	return resp.Data, nil
}

// GetAnimeRecommendations returns user recommendations for an anime
func (c *Client) GetAnimeRecommendations(ctx context.Context, id int) ([]domain.Recommendation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: anime id %d", ErrInvalidArgument, id)
	}

	resp := &domain.Response[[]domain.Recommendation]{}
	if err := c.get(ctx, fmt.Sprintf("/anime/%d/recommendations", id), nil, resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get recommendations for anime %d", id)
	}
	return resp.Data, nil
}
