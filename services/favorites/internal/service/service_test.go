package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
)

func TestRegister_BindsEveryCommand(t *testing.T) {
	h := newHarness(t)
	d := command.NewDispatcher()
	h.svc.Register(d)

	assert.ElementsMatch(t, []string{"AddFavorite", "RemoveFavorite"}, d.Names())
}

func TestFavorites_PublishAbsoluteCounts(t *testing.T) {
	h := newHarness(t)
	h.known(user, other)
	h.beer()
	for range 3 {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
	ctx := context.Background()

	fav, err := h.svc.AddFavorite(ctx, AddFavorite{Actor: user, BeerID: beerID})
	require.NoError(t, err)
	assert.Equal(t, "Atak Chmielu", fav.BeerName)
	assert.Equal(t, fixed, fav.CreatedAt)

	_, err = h.svc.AddFavorite(ctx, AddFavorite{Actor: other, BeerID: beerID})
	require.NoError(t, err)

	_, err = h.svc.RemoveFavorite(ctx, RemoveFavorite{Actor: user, BeerID: beerID})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 1}, h.pub.counts(t))
	h.beers.AssertCalled(t, "SetFavoritesCount", mock.Anything, beerID, 2)
	h.assertExpectations(t)
}

func TestAddFavorite_Twice(t *testing.T) {
	h := newHarness(t)
	h.known(user)
	h.beer()
	h.pool.ExpectBegin()
	h.pool.ExpectCommit()
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
	ctx := context.Background()

	_, err := h.svc.AddFavorite(ctx, AddFavorite{Actor: user, BeerID: beerID})
	require.NoError(t, err)
	_, err = h.svc.AddFavorite(ctx, AddFavorite{Actor: user, BeerID: beerID})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.Equal(t, []int{1}, h.pub.counts(t))
}

func TestAddFavorite_UnknownBeer(t *testing.T) {
	h := newHarness(t)
	h.known(user)
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
	h.beers.On("Lock", mock.Anything, beerID).Return(nil, apperrors.NotFound("beer", beerID))

	_, err := h.svc.AddFavorite(context.Background(), AddFavorite{Actor: user, BeerID: beerID})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, h.pub.events)
	h.assertExpectations(t)
}

func TestAddFavorite_DeletedUser(t *testing.T) {
	h := newHarness(t)
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
	h.users.On("GetByID", mock.Anything, userID).Return(&shadow.User{ID: userID, Deleted: true}, nil)

	_, err := h.svc.AddFavorite(context.Background(), AddFavorite{Actor: user, BeerID: beerID})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	h.beers.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
}

func TestRemoveFavorite_NotFavored(t *testing.T) {
	h := newHarness(t)
	h.beer()
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()

	_, err := h.svc.RemoveFavorite(context.Background(), RemoveFavorite{Actor: user, BeerID: beerID})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, h.pub.events)
}
