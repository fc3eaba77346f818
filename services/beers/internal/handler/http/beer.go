package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/service"
)

// beerFilter reads the list filters: brewery_id, style_id, min_abv and
// max_abv on top of the shared pagination parameters.
func beerFilter(r *http.Request) (repository.BeerFilter, error) {
	p, err := pagination.FromRequest(r, domain.BeerSortColumns()...)
	if err != nil {
		return repository.BeerFilter{}, err
	}
	f := repository.BeerFilter{Params: p}
	q := r.URL.Query()
	fields := map[string]string{}

	for param, dst := range map[string]**string{"brewery_id": &f.BreweryID, "style_id": &f.BeerStyleID} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			fields[param] = "must be a valid UUID"
			continue
		}
		*dst = &v
	}

	for param, dst := range map[string]**float64{"min_abv": &f.MinABV, "max_abv": &f.MaxABV} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 || n > 100 {
			fields[param] = "must be a number between 0 and 100"
			continue
		}
		*dst = &n
	}

	if f.MinABV != nil && f.MaxABV != nil && *f.MinABV > *f.MaxABV {
		fields["min_abv"] = "must not exceed max_abv"
	}
	if len(fields) > 0 {
		return repository.BeerFilter{}, apperrors.Validation(fields)
	}
	return f, nil
}

// ListBeers handles GET /api/v1/beers.
func (h *Handler) ListBeers(w http.ResponseWriter, r *http.Request) {
	f, err := beerFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	beers, total, err := h.queries.ListBeers(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, beers, total, f.Params)
}

// GetBeer handles GET /api/v1/beers/{id}.
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

// CreateBeer handles POST /api/v1/beers.
func (h *Handler) CreateBeer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var cmd service.CreateBeer
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())

	beer, err := command.Send[*domain.Beer](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: beer})
}

// UpdateBeer handles PUT /api/v1/beers/{id}.
func (h *Handler) UpdateBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var cmd service.UpdateBeer
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())
	cmd.ID = id

	beer, err := command.Send[*domain.Beer](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: beer})
}

// DeleteBeer handles DELETE /api/v1/beers/{id}.
func (h *Handler) DeleteBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cascade, err := command.Send[*service.Cascade](r.Context(), h.commands, service.DeleteBeer{
		Actor: middleware.ActorFromContext(r.Context()),
		ID:    id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cascade})
}
