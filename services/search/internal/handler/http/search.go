package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
)

const defaultSuggestions = 10

type searchResponse struct {
	httputil.PaginatedResponse[domain.BeerDocument]
	TookMs int64 `json:"took_ms"`
}

// SearchBeers handles GET /api/v1/search/beers.
func (h *Handler) SearchBeers(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.FromRequest(r, domain.SortOptions()...)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	q := &domain.Query{
		Text:       p.Search,
		SortBy:     p.SortBy,
		Descending: p.Descending,
		Page:       p.Page,
		PerPage:    p.PerPage,
	}
	if v := r.URL.Query().Get("brewery_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return
		}
		s := id.String()
		q.BreweryID = &s
	}
	if v := r.URL.Query().Get("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 10 {
			httputil.WriteError(w, r, apperrors.InvalidInput("min_rating must be a number between 0 and 10"), h.logger)
			return
		}
		q.MinRating = &rating
	}

	result, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		PaginatedResponse: httputil.NewPaginatedResponse(result.Beers, result.Total, result.Page, result.PerPage),
		TookMs:            result.TookMs,
	})
}

// SuggestBeers handles GET /api/v1/search/beers/suggest.
func (h *Handler) SuggestBeers(w http.ResponseWriter, r *http.Request) {
	limit := defaultSuggestions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be a positive integer"), h.logger)
			return
		}
		limit = n
	}

	names, err := h.searcher.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: names})
}

// GetBeer handles GET /api/v1/search/beers/{id}.
func (h *Handler) GetBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	doc, err := h.searcher.GetBeer(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: doc})
}

// Reindex handles POST /api/v1/search/reindex. The rebuild continues after
// the response is written.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	if err := h.searcher.StartReindex(context.WithoutCancel(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "started"}})
}
