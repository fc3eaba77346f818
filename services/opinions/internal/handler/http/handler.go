package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
)

// Queries is the read side served directly from the pool.
type Queries interface {
	GetOpinion(ctx context.Context, id string) (*domain.Opinion, error)
	ListOpinions(ctx context.Context, f repository.OpinionFilter) ([]domain.Opinion, int, error)
	GetBeer(ctx context.Context, id string) (*domain.Beer, error)
	ListBeerOpinions(ctx context.Context, beerID string, p pagination.Params) ([]domain.Opinion, int, error)
}

// Handler serves the opinions API.
type Handler struct {
	commands      *command.Dispatcher
	queries       Queries
	maxImageBytes int64
	logger        *slog.Logger
}

// NewHandler creates the opinions HTTP handler.
func NewHandler(commands *command.Dispatcher, queries Queries, maxImageBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		commands:      commands,
		queries:       queries,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return "", false
	}
	return id.String(), true
}
