package service

import (
	"context"
	"log/slog"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
)

func (s *Service) CreateBeerStyle(ctx context.Context, cmd CreateBeerStyle) (*domain.BeerStyle, error) {
	style := &domain.BeerStyle{
		ID:              domain.NewID(),
		Name:            cmd.Name,
		Description:     cmd.Description,
		CountryOfOrigin: cmd.CountryOfOrigin,
		CreatedAt:       s.now(),
	}

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}
		return repos.Styles.Create(ctx, style)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "beer style created", slog.String("beer_style_id", style.ID))
	return style, nil
}

// DeleteBeerStyle removes a style no beer uses.
func (s *Service) DeleteBeerStyle(ctx context.Context, cmd DeleteBeerStyle) (struct{}, error) {
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}
		if _, err := repos.Styles.GetByID(ctx, cmd.ID); err != nil {
			return err
		}
		used, err := repos.Styles.InUse(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if used {
			return apperrors.Validation(map[string]string{"id": "is still used by beers"})
		}
		return repos.Styles.Delete(ctx, cmd.ID)
	})
	return struct{}{}, err
}

func (s *Service) GetBeerStyle(ctx context.Context, id string) (*domain.BeerStyle, error) {
	return s.repos(s.db).Styles.GetByID(ctx, id)
}

func (s *Service) ListBeerStyles(ctx context.Context, p pagination.Params) ([]domain.BeerStyle, int, error) {
	return s.repos(s.db).Styles.List(ctx, p)
}
