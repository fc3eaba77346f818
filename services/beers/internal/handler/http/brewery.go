package http

import (
	"net/http"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/service"
)

// ListBreweries handles GET /api/v1/breweries.
func (h *Handler) ListBreweries(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.FromRequest(r, domain.BrewerySortColumns()...)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	breweries, total, err := h.queries.ListBreweries(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, breweries, total, p)
}

// GetBrewery handles GET /api/v1/breweries/{id}.
func (h *Handler) GetBrewery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	brewery, err := h.queries.GetBrewery(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: brewery})
}

// CreateBrewery handles POST /api/v1/breweries.
func (h *Handler) CreateBrewery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var cmd service.CreateBrewery
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())

	brewery, err := command.Send[*domain.Brewery](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: brewery})
}

// UpdateBrewery handles PUT /api/v1/breweries/{id}.
func (h *Handler) UpdateBrewery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var cmd service.UpdateBrewery
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())
	cmd.ID = id

	brewery, err := command.Send[*domain.Brewery](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: brewery})
}

// DeleteBrewery handles DELETE /api/v1/breweries/{id}. The response reports
// how the cascade went.
func (h *Handler) DeleteBrewery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cascade, err := command.Send[*service.Cascade](r.Context(), h.commands, service.DeleteBrewery{
		Actor: middleware.ActorFromContext(r.Context()),
		ID:    id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cascade})
}
