package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine"
)

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func describe(t *testing.T, eng *Engine, name, breweryID, breweryName string) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, eng.Patch(context.Background(), id, &domain.Patch{
		Name:        ptr(name),
		BreweryID:   ptr(breweryID),
		BreweryName: ptr(breweryName),
		UpdatedAt:   fixed,
	}))
	return id
}

func query(text string) *domain.Query {
	return &domain.Query{Text: text, SortBy: domain.SortRelevance, Page: 1, PerPage: 20}
}

func names(r *domain.Result) []string {
	out := make([]string, 0, len(r.Beers))
	for _, b := range r.Beers {
		out = append(out, b.Name)
	}
	return out
}

func TestEngine_PatchesCommute(t *testing.T) {
	ctx := context.Background()
	eng := New()
	id := uuid.NewString()

	require.NoError(t, eng.Patch(ctx, id, &domain.Patch{Rating: ptr(7.5), OpinionsCount: ptr(2)}))
	_, err := eng.Get(ctx, id)
	require.ErrorIs(t, err, engine.ErrNotFound, "counters alone do not make a beer searchable")

	require.NoError(t, eng.Patch(ctx, id, &domain.Patch{Name: ptr("Atak Chmielu"), BreweryID: ptr("br-1"), BreweryName: ptr("Pinta")}))
	require.NoError(t, eng.Patch(ctx, id, &domain.Patch{FavoritesCount: ptr(4)}))
	require.NoError(t, eng.Patch(ctx, id, &domain.Patch{FavoritesCount: ptr(4)}))

	doc, err := eng.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Atak Chmielu", doc.Name)
	assert.Equal(t, 7.5, doc.Rating)
	assert.Equal(t, 2, doc.OpinionsCount)
	assert.Equal(t, 4, doc.FavoritesCount)
}

func TestEngine_PatchZeroValues(t *testing.T) {
	ctx := context.Background()
	eng := New()
	id := describe(t, eng, "Hazy Morning", "br-1", "Pinta")
	require.NoError(t, eng.Patch(ctx, id, &domain.Patch{Rating: ptr(8.0), OpinionsCount: ptr(1)}))

	require.NoError(t, eng.Patch(ctx, id, &domain.Patch{Rating: ptr(0.0), OpinionsCount: ptr(0)}))

	doc, err := eng.Get(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, doc.Rating)
	assert.Zero(t, doc.OpinionsCount)
}

func TestEngine_SearchRelevance(t *testing.T) {
	ctx := context.Background()
	eng := New()
	describe(t, eng, "Double IPA", "br-1", "Pinta")
	describe(t, eng, "IPA", "br-1", "Pinta")
	describe(t, eng, "Session IPA Light", "br-2", "Artezan")
	describe(t, eng, "Porter", "br-3", "Ipanema Brewing")
	describe(t, eng, "Stout", "br-2", "Artezan")

	result, err := eng.Search(ctx, query("ipa"))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, []string{"IPA", "Double IPA", "Session IPA Light", "Porter"}, names(result))
}

func TestEngine_SearchFilters(t *testing.T) {
	ctx := context.Background()
	eng := New()
	a := describe(t, eng, "Atak Chmielu", "br-1", "Pinta")
	b := describe(t, eng, "Hazy Morning", "br-1", "Pinta")
	describe(t, eng, "Stout", "br-2", "Artezan")
	require.NoError(t, eng.Patch(ctx, a, &domain.Patch{Rating: ptr(8.5)}))
	require.NoError(t, eng.Patch(ctx, b, &domain.Patch{Rating: ptr(6.0)}))

	q := query("")
	q.BreweryID = ptr("br-1")
	q.MinRating = ptr(7.0)
	result, err := eng.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, []string{"Atak Chmielu"}, names(result))
}

func TestEngine_SearchSortAndPaginate(t *testing.T) {
	ctx := context.Background()
	eng := New()
	for i, name := range []string{"Amber", "Bock", "Dunkel", "Gose", "Kolsch"} {
		id := describe(t, eng, name, "br-1", "Pinta")
		require.NoError(t, eng.Patch(ctx, id, &domain.Patch{FavoritesCount: ptr(i)}))
	}

	q := query("")
	q.SortBy = domain.SortFavorites
	q.Descending = true
	q.PerPage = 2
	q.Page = 2
	result, err := eng.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, []string{"Dunkel", "Bock"}, names(result))

	q.Page = 4
	result, err = eng.Search(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, result.Beers)
}

func TestEngine_SearchSkipsUndescribed(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Patch(ctx, uuid.NewString(), &domain.Patch{FavoritesCount: ptr(3)}))

	result, err := eng.Search(ctx, query(""))
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Equal(t, 1, eng.Len())
}

func TestEngine_DeleteByBrewery(t *testing.T) {
	ctx := context.Background()
	eng := New()
	describe(t, eng, "Atak Chmielu", "br-1", "Pinta")
	describe(t, eng, "Hazy Morning", "br-1", "Pinta")
	keep := describe(t, eng, "Stout", "br-2", "Artezan")

	n, err := eng.DeleteByBrewery(ctx, "br-1")
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, 1, eng.Len())
	_, err = eng.Get(ctx, keep)
	require.NoError(t, err)
}

func TestEngine_DeleteMissing(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Delete(context.Background(), uuid.NewString()))
}

func TestEngine_Suggest(t *testing.T) {
	ctx := context.Background()
	eng := New()
	a := describe(t, eng, "Hazy Morning", "br-1", "Pinta")
	describe(t, eng, "Hop Harvest", "br-1", "Pinta")
	describe(t, eng, "Double Hop", "br-2", "Artezan")
	describe(t, eng, "Stout", "br-2", "Artezan")
	require.NoError(t, eng.Patch(ctx, a, &domain.Patch{OpinionsCount: ptr(9)}))

	got, err := eng.Suggest(ctx, "h", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hazy Morning", "Double Hop", "Hop Harvest"}, got)

	got, err = eng.Suggest(ctx, "h", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hazy Morning"}, got)
}

func TestEngine_BulkIndexReplaces(t *testing.T) {
	ctx := context.Background()
	eng := New()
	id := describe(t, eng, "Old Name", "br-1", "Pinta")

	require.NoError(t, eng.BulkIndex(ctx, []domain.BeerDocument{
		{ID: id, Name: "New Name", BreweryID: "br-1", BreweryName: "Pinta", Rating: 9},
	}))

	doc, err := eng.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New Name", doc.Name)
	assert.Equal(t, 9.0, doc.Rating)
}
