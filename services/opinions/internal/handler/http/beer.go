package http

import (
	"net/http"

	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
)

// GetBeer handles GET /api/v1/beers/{id}: the beer as rated here.
func (h *Handler) GetBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	beer, err := h.queries.GetBeer(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: beer})
}

// ListBeerOpinions handles GET /api/v1/beers/{id}/opinions.
func (h *Handler) ListBeerOpinions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := pagination.FromRequest(r, domain.OpinionSortColumns()...)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	opinions, total, err := h.queries.ListBeerOpinions(r.Context(), id, p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(opinions, total, p.Page, p.PerPage))
}
