package api

import (
	"net/http"
	"strconv"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/jikan"
)

func (h *Handler) TopAnime(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter, err := jikan.ParseTopFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.catalog.GetTopAnime(r.Context(), page, filter)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SeasonalAnime serves the current season, or a past one when both year and
// season are given.
func (h *Handler) SeasonalAnime(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	var resp *jikan.AnimeList
	if q.Get("year") != "" || q.Get("season") != "" {
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			writeJSONError(w, "invalid year", http.StatusBadRequest)
			return
		}
		resp, err = h.catalog.GetSeason(r.Context(), year, q.Get("season"), page)
		if err != nil {
			h.writeCatalogError(w, err)
			return
		}
	} else {
		resp, err = h.catalog.GetSeasonalAnime(r.Context(), page)
		if err != nil {
			h.writeCatalogError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SearchAnime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSONError(w, "missing q", http.StatusBadRequest)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sfw, _ := strconv.ParseBool(q.Get("sfw"))

	resp, err := h.catalog.SearchAnime(r.Context(), query, page, jikan.SearchOptions{
		Limit:   limit,
		OrderBy: q.Get("order_by"),
		Sort:    q.Get("sort"),
		Type:    q.Get("type"),
		Status:  q.Get("status"),
		SFW:     sfw,
	})
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalog.GetSchedule(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.GetGenres(r.Context())
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// Anime serves one catalog item, flagged with its list state
func (h *Handler) Anime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := h.catalog.GetAnimeByID(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	entry, listed := h.list.Item(id)
	resp := animeResponse{Anime: item, InList: listed, Favorite: listed && entry.Status == domain.StatusFavorites}
	if listed {
		resp.Entry = &entry
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}

	recs, err := h.catalog.GetAnimeRecommendations(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) AnimeByGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.catalog.GetAnimeByGenre(r.Context(), id, page)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
