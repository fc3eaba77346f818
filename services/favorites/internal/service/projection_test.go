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
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
)

func TestBeerProjection_UpsertKeepsCount(t *testing.T) {
	h := newHarness(t)
	for range 2 {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
	h.beers.On("Upsert", mock.Anything, mock.MatchedBy(func(b *domain.Beer) bool {
		return b.ID == beerID && b.FavoritesCount == 0 && b.UpdatedAt.Equal(fixed)
	})).Return(nil).Twice()

	ctx := context.Background()
	require.NoError(t, h.svc.ApplyBeerCreated(ctx, events.BeerCreated{
		ID: beerID, Name: "Atak Chmielu", BreweryID: breweryID, BreweryName: "Pinta",
	}))
	require.NoError(t, h.svc.ApplyBeerUpdated(ctx, events.BeerUpdated{
		ID: beerID, Name: "Atak Chmielu", BreweryID: breweryID, BreweryName: "Pinta",
	}))

	assert.Empty(t, h.pub.events)
	h.assertExpectations(t)
}

func TestBeerProjection_Deletes(t *testing.T) {
	h := newHarness(t)
	for range 3 {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
	h.beers.On("Delete", mock.Anything, beerID).Return(true, nil).Once()
	h.beers.On("Delete", mock.Anything, beerID).Return(false, nil).Once()
	h.beers.On("DeleteByBrewery", mock.Anything, breweryID).Return(int64(0), nil)

	ctx := context.Background()
	require.NoError(t, h.svc.ApplyBeerDeleted(ctx, events.BeerDeleted{ID: beerID, BreweryID: breweryID}))
	require.NoError(t, h.svc.ApplyBeerDeleted(ctx, events.BeerDeleted{ID: beerID, BreweryID: breweryID}))
	require.NoError(t, h.svc.ApplyBreweryDeleted(ctx, events.BreweryDeleted{ID: breweryID}))
	h.assertExpectations(t)
}

// A deleted account keeps its favorites counted but cannot add new ones.
func TestDeleteUser_FavoritesStayCounted(t *testing.T) {
	h := newHarness(t)
	h.beer()
	for range 3 {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()

	h.users.On("GetByID", mock.Anything, userID).Return(&shadow.User{ID: userID, Username: "hopper"}, nil).Once()
	h.users.On("GetByID", mock.Anything, otherID).Return(&shadow.User{ID: otherID, Username: "malt"}, nil)
	h.users.On("MarkDeleted", mock.Anything, userID).Return(nil)
	h.users.On("GetByID", mock.Anything, userID).Return(&shadow.User{ID: userID, Deleted: true}, nil)

	ctx := context.Background()
	_, err := h.svc.AddFavorite(ctx, AddFavorite{Actor: user, BeerID: beerID})
	require.NoError(t, err)
	require.NoError(t, h.svc.DeleteUser(ctx, events.UserDeleted{ID: userID}))
	_, err = h.svc.AddFavorite(ctx, AddFavorite{Actor: other, BeerID: beerID})
	require.NoError(t, err)

	_, err = h.svc.AddFavorite(ctx, AddFavorite{Actor: user, BeerID: "7b2d2b64-1c59-4d5f-8b4c-8e6a0b4d1b33"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, []int{1, 2}, h.pub.counts(t))
}

func TestRenameUser_UnknownUser(t *testing.T) {
	h := newHarness(t)
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
	h.users.On("Rename", mock.Anything, userID, "x").Return(false, nil)

	err := h.svc.RenameUser(context.Background(), events.UserUpdated{ID: userID, Username: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
