package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

// Queries is the read side served directly from the pool.
type Queries interface {
	ListFavorites(ctx context.Context, f repository.FavoriteFilter) ([]domain.Favorite, int, error)
	GetBeer(ctx context.Context, id string) (*domain.Beer, error)
}

// Handler serves the favorites API.
type Handler struct {
	commands *command.Dispatcher
	queries  Queries
	logger   *slog.Logger
}

// NewHandler creates the favorites HTTP handler.
func NewHandler(commands *command.Dispatcher, queries Queries, logger *slog.Logger) *Handler {
	return &Handler{commands: commands, queries: queries, logger: logger}
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return "", false
	}
	return id.String(), true
}
