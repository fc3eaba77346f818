package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// CascadeState is a step of a cascading delete.
type CascadeState string

const (
	CascadeValidated              CascadeState = "Validated"
	CascadeLocallyDeleted         CascadeState = "LocallyDeleted"
	CascadeRemoteCleanupRequested CascadeState = "RemoteCleanupRequested"
	CascadeDone                   CascadeState = "Done"
	CascadeFailed                 CascadeState = "Failed"
)

var cascadeNext = map[CascadeState]CascadeState{
	"":                            CascadeValidated,
	CascadeValidated:              CascadeLocallyDeleted,
	CascadeLocallyDeleted:         CascadeRemoteCleanupRequested,
	CascadeRemoteCleanupRequested: CascadeDone,
}

// Cascade reports how a cascading delete went.
type Cascade struct {
	Target       string         `json:"target"`
	ID           string         `json:"id"`
	State        CascadeState   `json:"state"`
	History      []CascadeState `json:"-"`
	BeersDeleted int            `json:"beers_deleted"`
	Prefixes     []string       `json:"prefixes"`
}

func (c *Cascade) advance(to CascadeState) error {
	if cascadeNext[c.State] != to {
		return fmt.Errorf("cascade %s %s: illegal transition %q -> %q", c.Target, c.ID, c.State, to)
	}
	c.State = to
	c.History = append(c.History, to)
	return nil
}

func (c *Cascade) fail() {
	if c.State == CascadeDone {
		return
	}
	c.State = CascadeFailed
	c.History = append(c.History, CascadeFailed)
}

// cascadePlan describes one cascading delete. validate loads the target and
// fills in what the later steps need.
type cascadePlan struct {
	name        string
	actor       auth.Actor
	validate    func(ctx context.Context, repos repository.Set) error
	deleteLocal func(ctx context.Context, repos repository.Set) error
	prefixes    func() []string
	emit        func(ctx context.Context, sc *uow.Scope) error
}

// runCascade executes plan in one unit of work. The remote prefix deletions
// run after the local delete and before commit, so a failing blob store rolls
// the local delete back. A not-found prefix counts as deleted.
func (s *Service) runCascade(ctx context.Context, c *Cascade, plan cascadePlan) error {
	log := s.logger.With(slog.String("cascade", plan.name), slog.String("target_id", c.ID))

	err := s.uow.Execute(ctx, plan.name, func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, plan.actor); err != nil {
			return err
		}
		if err := plan.validate(ctx, repos); err != nil {
			return err
		}
		if err := c.advance(CascadeValidated); err != nil {
			return err
		}

		if err := plan.deleteLocal(ctx, repos); err != nil {
			return err
		}
		if err := c.advance(CascadeLocallyDeleted); err != nil {
			return err
		}

		c.Prefixes = plan.prefixes()
		if err := c.advance(CascadeRemoteCleanupRequested); err != nil {
			return err
		}
		for _, prefix := range c.Prefixes {
			if err := s.blobs.DeleteFromPath(ctx, prefix); err != nil {
				return fmt.Errorf("delete blobs under %s: %w", prefix, err)
			}
		}

		return plan.emit(ctx, sc)
	})
	if err != nil {
		c.fail()
		log.WarnContext(ctx, "cascading delete failed", slog.String("error", err.Error()))
		return err
	}

	if err := c.advance(CascadeDone); err != nil {
		return err
	}
	log.InfoContext(ctx, "cascading delete completed",
		slog.Int("beers_deleted", c.BeersDeleted),
		slog.Any("prefixes", c.Prefixes),
	)
	return nil
}

// DeleteBrewery removes a brewery with all of its beers, then every image
// stored under Beers/{brewery} and Opinions/{brewery}.
func (s *Service) DeleteBrewery(ctx context.Context, cmd DeleteBrewery) (*Cascade, error) {
	c := &Cascade{Target: "brewery", ID: cmd.ID}
	var beers []repository.BeerRef

	err := s.runCascade(ctx, c, cascadePlan{
		name:  cmd.CommandName(),
		actor: cmd.Actor,
		validate: func(ctx context.Context, repos repository.Set) error {
			if _, err := repos.Breweries.GetByID(ctx, cmd.ID); err != nil {
				return err
			}
			var err error
			beers, err = repos.Beers.ListByBrewery(ctx, cmd.ID)
			return err
		},
		deleteLocal: func(ctx context.Context, repos repository.Set) error {
			n, err := repos.Beers.DeleteByBrewery(ctx, cmd.ID)
			if err != nil {
				return err
			}
			c.BeersDeleted = int(n)
			return repos.Breweries.Delete(ctx, cmd.ID)
		},
		prefixes: func() []string {
			return []string{
				blobstore.BreweryBeersPrefix(cmd.ID),
				blobstore.BreweryOpinionsPrefix(cmd.ID),
			}
		},
		emit: func(ctx context.Context, sc *uow.Scope) error {
			if err := sc.Emit(ctx, events.BreweryDeleted{ID: cmd.ID}); err != nil {
				return err
			}
			for _, b := range beers {
				if err := sc.Emit(ctx, events.BeerDeleted{ID: b.ID, BreweryID: cmd.ID}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return c, err
}

// DeleteBeer removes a beer, its image and the images of its opinions.
func (s *Service) DeleteBeer(ctx context.Context, cmd DeleteBeer) (*Cascade, error) {
	c := &Cascade{Target: "beer", ID: cmd.ID}
	var breweryID string

	err := s.runCascade(ctx, c, cascadePlan{
		name:  cmd.CommandName(),
		actor: cmd.Actor,
		validate: func(ctx context.Context, repos repository.Set) error {
			beer, err := repos.Beers.GetByID(ctx, cmd.ID)
			if err != nil {
				return err
			}
			breweryID = beer.BreweryID
			return nil
		},
		deleteLocal: func(ctx context.Context, repos repository.Set) error {
			if err := repos.Beers.Delete(ctx, cmd.ID); err != nil {
				return err
			}
			c.BeersDeleted = 1
			return nil
		},
		prefixes: func() []string {
			return []string{
				blobstore.BeerImagePath(breweryID, cmd.ID),
				blobstore.BeerOpinionsPrefix(breweryID, cmd.ID),
			}
		},
		emit: func(ctx context.Context, sc *uow.Scope) error {
			return sc.Emit(ctx, events.BeerDeleted{ID: cmd.ID, BreweryID: breweryID})
		},
	})
	return c, err
}
