// Package catalog reads the beer catalog from the beers service for full
// reindexing.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
)

// ServiceName labels errors and the circuit breaker.
const ServiceName = "beers-service"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type beersPage struct {
	Data []struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		BreweryID      string    `json:"brewery_id"`
		BreweryName    string    `json:"brewery_name"`
		Rating         float64   `json:"rating"`
		OpinionsCount  int       `json:"opinions_count"`
		FavoritesCount int       `json:"favorites_count"`
		UpdatedAt      time.Time `json:"updated_at"`
	} `json:"data"`
	TotalCount int  `json:"total_count"`
	HasNext    bool `json:"has_next"`
}

// BeersClient pages through GET /api/v1/beers.
type BeersClient struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewBeersClient creates a client for the beers service at baseURL.
func NewBeersClient(client *httpclient.CircuitBreakerClient, baseURL string, logger *slog.Logger) *BeersClient {
	return &BeersClient{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// ListBeers returns one page of beers as search documents and whether more
// pages follow.
func (c *BeersClient) ListBeers(ctx context.Context, page, perPage int) ([]domain.BeerDocument, bool, error) {
	url := fmt.Sprintf("%s/api/v1/beers?page=%d&per_page=%d&sort=name", c.baseURL, page, perPage)
	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return nil, false, apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("list beers page %d: %w", page, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, httpclient.ParseResponseError(resp, ServiceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out beersPage
	if err := codec.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("decode beers page %d: %w", page, err))
	}

	docs := make([]domain.BeerDocument, 0, len(out.Data))
	for _, b := range out.Data {
		docs = append(docs, domain.BeerDocument{
			ID:             b.ID,
			Name:           b.Name,
			BreweryID:      b.BreweryID,
			BreweryName:    b.BreweryName,
			Rating:         b.Rating,
			OpinionsCount:  b.OpinionsCount,
			FavoritesCount: b.FavoritesCount,
			UpdatedAt:      b.UpdatedAt,
		})
	}

	c.logger.DebugContext(ctx, "fetched beers page",
		slog.Int("page", page),
		slog.Int("count", len(docs)),
		slog.Int("total", out.TotalCount),
	)
	return docs, out.HasNext, nil
}
