package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/list"
)

type animeResponse struct {
	Anime    *domain.Anime     `json:"anime"`
	InList   bool              `json:"in_list"`
	Favorite bool              `json:"favorite"`
	Entry    *domain.ListEntry `json:"entry,omitempty"`
}

type addRequest struct {
	AnimeID int               `json:"anime_id"`
	Status  domain.ListStatus `json:"status"`
}

// updateRequest holds the fields a PATCH may set. Rating is kept raw so an
// explicit null can clear it.
type updateRequest struct {
	Status   *domain.ListStatus `json:"status"`
	Progress *int               `json:"progress"`
	Rating   json.RawMessage    `json:"rating"`
	Note     *string            `json:"note"`
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeJSON(w, http.StatusOK, h.list.Items())
		return
	}

	s, err := domain.ParseListStatus(status)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.list.ItemsByStatus(s))
}

func (h *Handler) ListStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.list.Stats())
}

func (h *Handler) ListItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}

	entry, ok := h.list.Item(id)
	if !ok {
		writeJSONError(w, "not in list", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// AddItem looks the anime up in the catalog and adds it to the list
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AnimeID <= 0 {
		writeJSONError(w, "invalid anime_id", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = domain.StatusPlanned
	}
	if !req.Status.Valid() {
		writeJSONError(w, fmt.Sprintf("invalid status: %q", req.Status), http.StatusBadRequest)
		return
	}

	item, err := h.catalog.GetAnimeByID(r.Context(), req.AnimeID)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.list.Add(*item, req.Status))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, ok := h.list.Item(id)
	if !ok {
		writeJSONError(w, "not in list", http.StatusNotFound)
		return
	}

	if req.Status != nil && !req.Status.Valid() {
		writeJSONError(w, fmt.Sprintf("invalid status: %q", *req.Status), http.StatusBadRequest)
		return
	}

	changes := list.Changes{Status: req.Status, Note: req.Note}
	if len(req.Rating) > 0 {
		changes.SetRating = true
		if !bytes.Equal(req.Rating, []byte("null")) {
			var v int
			if err := json.Unmarshal(req.Rating, &v); err != nil || !list.ValidRating(v) {
				writeJSONError(w, "rating must be between 1 and 5 or null", http.StatusBadRequest)
				return
			}
			changes.Rating = &v
		}
	}
	if req.Progress != nil {
		progress := list.ClampProgress(*req.Progress, entry.Episodes)
		changes.Progress = &progress
	}

	entry, ok = h.list.Apply(id, changes)
	if !ok {
		writeJSONError(w, "not in list", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	h.list.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, h.list.ToggleFavorite(*item))
}
