// Package service implements the image store: blob uploads and deletes with
// their metadata and events.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/repository"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage"
)

// Service implements the images business logic.
type Service struct {
	db     database.DBTX
	repos  repository.Factory
	uow    *uow.Executor
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// New creates the images service.
func New(db database.DBTX, repos repository.Factory, executor *uow.Executor, store storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		uow:    executor,
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register binds every images command to d.
func (s *Service) Register(d *command.Dispatcher) {
	command.Register(d, s.UploadImage)
	command.Register(d, s.DeleteImage)
	command.Register(d, s.DeletePaths)
}

// UploadImage writes the blob, then records it. If the record cannot be
// committed the blob is removed again.
func (s *Service) UploadImage(ctx context.Context, cmd UploadImage) (*domain.Image, error) {
	if err := domain.ValidatePath(cmd.Path); err != nil {
		return nil, err
	}
	if !domain.IsAllowedContentType(cmd.ContentType) {
		return nil, apperrors.Validation(map[string]string{
			"file": fmt.Sprintf("content type %q is not allowed", cmd.ContentType),
		})
	}

	now := s.now()
	img := &domain.Image{
		Path:        cmd.Path,
		URI:         s.store.URL(cmd.Path),
		ContentType: cmd.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		n, err := s.store.Upload(ctx, cmd.Path, cmd.Content, cmd.ContentType)
		if err != nil {
			return fmt.Errorf("store %s: %w", cmd.Path, err)
		}
		sc.OnRollback(func(ctx context.Context) error {
			return s.store.Delete(ctx, cmd.Path)
		})
		if n == 0 {
			return apperrors.Validation(map[string]string{"file": "is empty"})
		}
		img.Size = n

		if err := s.repos(sc.Tx()).Images.Upsert(ctx, img); err != nil {
			return err
		}
		return sc.Emit(ctx, events.ImageUploaded{Path: img.Path, URI: img.URI})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("path", img.Path),
		slog.String("content_type", img.ContentType),
		slog.Int64("size", img.Size),
	)
	return img, nil
}

// DeleteImage removes the record and the blob behind uri. An unknown uri is
// NotFound.
func (s *Service) DeleteImage(ctx context.Context, cmd DeleteImage) (struct{}, error) {
	var path string
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		img, err := repos.Images.GetByURI(ctx, cmd.URI)
		if err != nil {
			return err
		}
		path = img.Path
		if err := repos.Images.Delete(ctx, img.Path); err != nil {
			return err
		}
		if err := s.store.Delete(ctx, img.Path); err != nil {
			return fmt.Errorf("remove blob %s: %w", img.Path, err)
		}
		return sc.Emit(ctx, events.ImageDeleted{URI: cmd.URI})
	})
	if err != nil {
		return struct{}{}, err
	}

	s.logger.InfoContext(ctx, "image deleted", slog.String("path", path))
	return struct{}{}, nil
}

// DeletePaths removes everything under each prefix. Prefixes that hold
// nothing succeed.
func (s *Service) DeletePaths(ctx context.Context, cmd DeletePaths) (int, error) {
	for _, p := range cmd.Paths {
		if err := domain.ValidatePath(p); err != nil {
			return 0, err
		}
	}

	removed := 0
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		for _, prefix := range cmd.Paths {
			paths, err := repos.Images.DeleteUnder(ctx, prefix)
			if err != nil {
				return err
			}
			if err := s.store.DeletePrefix(ctx, prefix); err != nil {
				return fmt.Errorf("remove blobs under %s: %w", prefix, err)
			}
			removed += len(paths)
		}
		return sc.Emit(ctx, events.ImagesDeleted{Paths: cmd.Paths})
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "image paths deleted",
		slog.Any("paths", cmd.Paths),
		slog.Int("removed", removed),
	)
	return removed, nil
}

// Open returns the blob stored at path for serving.
func (s *Service) Open(ctx context.Context, path string) (*storage.Object, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}
	obj, err := s.store.Open(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("image", path)
		}
		return nil, err
	}
	return obj, nil
}

// GetImage returns the metadata stored at path.
func (s *Service) GetImage(ctx context.Context, path string) (*domain.Image, error) {
	return s.repos(s.db).Images.GetByPath(ctx, path)
}
