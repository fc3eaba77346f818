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

// ListBeerStyles handles GET /api/v1/beer-styles.
func (h *Handler) ListBeerStyles(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.FromRequest(r, domain.SortByName)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	styles, total, err := h.queries.ListBeerStyles(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, styles, total, p)
}

// GetBeerStyle handles GET /api/v1/beer-styles/{id}.
func (h *Handler) GetBeerStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	style, err := h.queries.GetBeerStyle(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: style})
}

// CreateBeerStyle handles POST /api/v1/beer-styles.
func (h *Handler) CreateBeerStyle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var cmd service.CreateBeerStyle
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())

	style, err := command.Send[*domain.BeerStyle](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: style})
}

// DeleteBeerStyle handles DELETE /api/v1/beer-styles/{id}.
func (h *Handler) DeleteBeerStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	_, err := command.Send[struct{}](r.Context(), h.commands, service.DeleteBeerStyle{
		Actor: middleware.ActorFromContext(r.Context()),
		ID:    id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
