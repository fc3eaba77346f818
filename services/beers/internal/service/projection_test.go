package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
)

func TestApplyOpinionChanged(t *testing.T) {
	h := newHarness(t)
	h.pool.ExpectBegin()
	h.pool.ExpectCommit()
	h.beers.On("SetOpinionStats", mock.Anything, beerID, 7.5, 4).Return(true, nil)

	err := h.svc.ApplyOpinionChanged(context.Background(), events.BeerOpinionChanged{
		BeerID: beerID, OpinionsCount: 4, NewBeerRating: 7.5,
	})

	require.NoError(t, err)
	assert.Empty(t, h.pub.events, "projections never publish")
	h.assertExpectations(t)
}

func TestApplyOpinionChanged_UnknownBeerIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.pool.ExpectBegin()
	h.pool.ExpectCommit()
	h.beers.On("SetOpinionStats", mock.Anything, beerID, 0.0, 0).Return(false, nil)

	err := h.svc.ApplyOpinionChanged(context.Background(), events.BeerOpinionChanged{BeerID: beerID})

	assert.NoError(t, err)
	h.assertExpectations(t)
}

func TestApplyFavoritesCountChanged_UnknownBeer(t *testing.T) {
	h := newHarness(t)
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
	h.beers.On("SetFavoritesCount", mock.Anything, beerID, 3).Return(false, nil)

	err := h.svc.ApplyFavoritesCountChanged(context.Background(), events.BeerFavoritesCountChanged{BeerID: beerID, FavoritesCount: 3})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	h.assertExpectations(t)
}

func TestUserProjection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for range 3 {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
	h.users.On("Upsert", mock.Anything, mock.MatchedBy(func(u *shadow.User) bool {
		return u.ID == adminID && u.Username == "hopper" && !u.Deleted
	})).Return(nil)
	h.users.On("Rename", mock.Anything, adminID, "hopper2").Return(true, nil)
	h.users.On("MarkDeleted", mock.Anything, adminID).Return(nil)

	require.NoError(t, h.svc.UpsertUser(ctx, events.UserCreated{ID: adminID, Username: "hopper", Role: "Administrator"}))
	require.NoError(t, h.svc.RenameUser(ctx, events.UserUpdated{ID: adminID, Username: "hopper2"}))
	require.NoError(t, h.svc.DeleteUser(ctx, events.UserDeleted{ID: adminID}))
	h.assertExpectations(t)
}

func TestRenameUser_UnknownUser(t *testing.T) {
	h := newHarness(t)
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
	h.users.On("Rename", mock.Anything, adminID, "x").Return(false, nil)

	err := h.svc.RenameUser(context.Background(), events.UserUpdated{ID: adminID, Username: "x"})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	h.assertExpectations(t)
}

func TestProjections_RedeliveryConverges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for range 4 {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
	h.beers.On("SetFavoritesCount", mock.Anything, beerID, 5).Return(true, nil).Twice()
	h.beers.On("SetOpinionStats", mock.Anything, beerID, 6.5, 2).Return(true, nil).Twice()

	favorites := events.BeerFavoritesCountChanged{BeerID: beerID, FavoritesCount: 5}
	opinions := events.BeerOpinionChanged{BeerID: beerID, OpinionsCount: 2, NewBeerRating: 6.5}
	for range 2 {
		require.NoError(t, h.svc.ApplyFavoritesCountChanged(ctx, favorites))
		require.NoError(t, h.svc.ApplyOpinionChanged(ctx, opinions))
	}

	h.beers.AssertNumberOfCalls(t, "SetFavoritesCount", 2)
	h.beers.AssertNumberOfCalls(t, "SetOpinionStats", 2)
	assert.Empty(t, h.pub.events)
	h.assertExpectations(t)
}
