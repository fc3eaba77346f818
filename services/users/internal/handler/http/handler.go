package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
)

// Queries is the read side served directly from the pool.
type Queries interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, p pagination.Params) ([]domain.User, int, error)
}

// Handler serves the users API.
type Handler struct {
	commands *command.Dispatcher
	queries  Queries
	logger   *slog.Logger
}

// NewHandler creates the users HTTP handler.
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
