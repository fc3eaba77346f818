package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// Queries is the read side served directly from the pool.
type Queries interface {
	GetBrewery(ctx context.Context, id string) (*domain.Brewery, error)
	ListBreweries(ctx context.Context, p pagination.Params) ([]domain.Brewery, int, error)
	GetBeerStyle(ctx context.Context, id string) (*domain.BeerStyle, error)
	ListBeerStyles(ctx context.Context, p pagination.Params) ([]domain.BeerStyle, int, error)
	GetBeer(ctx context.Context, id string) (*domain.Beer, error)
	ListBeers(ctx context.Context, f repository.BeerFilter) ([]domain.Beer, int, error)
}

// Handler serves the beers API. Mutations go through the command
// dispatcher, reads through Queries.
type Handler struct {
	commands      *command.Dispatcher
	queries       Queries
	maxImageBytes int64
	logger        *slog.Logger
}

// NewHandler creates the beers HTTP handler.
func NewHandler(commands *command.Dispatcher, queries Queries, maxImageBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		commands:      commands,
		queries:       queries,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// pathID reads the {id} parameter, writing a 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return "", false
	}
	return id.String(), true
}

func writeList[T any](w http.ResponseWriter, items []T, total int, p pagination.Params) {
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, p.Page, p.PerPage))
}
