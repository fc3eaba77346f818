package http

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage"
)

// Queries is the read side: metadata lookups and blob reads.
type Queries interface {
	GetImage(ctx context.Context, path string) (*domain.Image, error)
	Open(ctx context.Context, path string) (*storage.Object, error)
}

// Handler serves the images API and the stored files.
type Handler struct {
	commands       *command.Dispatcher
	queries        Queries
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler creates the images HTTP handler.
func NewHandler(commands *command.Dispatcher, queries Queries, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		commands:       commands,
		queries:        queries,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}
