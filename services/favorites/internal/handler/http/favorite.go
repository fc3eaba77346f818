package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/service"
)

func favoriteFilter(r *http.Request) (repository.FavoriteFilter, error) {
	p, err := pagination.FromRequest(r, domain.FavoriteSortColumns()...)
	if err != nil {
		return repository.FavoriteFilter{}, err
	}
	f := repository.FavoriteFilter{Params: p}
	fields := map[string]string{}

	for param, dst := range map[string]**string{"user_id": &f.UserID, "beer_id": &f.BeerID} {
		v := r.URL.Query().Get(param)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			fields[param] = "must be a valid UUID"
			continue
		}
		*dst = &v
	}
	if len(fields) > 0 {
		return repository.FavoriteFilter{}, apperrors.Validation(fields)
	}
	return f, nil
}

// ListFavorites handles GET /api/v1/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	f, err := favoriteFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	favorites, total, err := h.queries.ListFavorites(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(favorites, total, f.Page, f.PerPage))
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

// AddFavorite handles POST /api/v1/beers/{id}/favorite.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	favorite, err := command.Send[*domain.Favorite](r.Context(), h.commands, service.AddFavorite{
		Actor:  middleware.ActorFromContext(r.Context()),
		BeerID: id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: favorite})
}

// RemoveFavorite handles DELETE /api/v1/beers/{id}/favorite.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	_, err := command.Send[struct{}](r.Context(), h.commands, service.RemoveFavorite{
		Actor:  middleware.ActorFromContext(r.Context()),
		BeerID: id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
