// Package elasticsearch stores the search read model in an Elasticsearch
// index. Documents are assembled from partial updates: each source event
// patches only the fields it owns.
package elasticsearch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	jsoniter "github.com/json-iterator/go"

	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// retryOnConflict bounds the server-side retries of a partial update racing
// another update of the same document.
const retryOnConflict = 5

// Engine is the Elasticsearch implementation of engine.SearchEngine.
type Engine struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

type hit struct {
	Source domain.BeerDocument `json:"_source"`
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	Found bool `json:"found"`
	hit
}

type bulkItem struct {
	ID    string `json:"_id"`
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

// patchDoc is the partial document sent to the update API. The id is
// repeated so a document created by the upsert carries it in _source.
type patchDoc struct {
	ID string `json:"id"`
	*domain.Patch
}

// New connects to esURL and creates the index when it is missing. An empty
// index name selects DefaultIndexName.
func New(ctx context.Context, esURL, index string, logger *slog.Logger) (*Engine, error) {
	return NewWithTransport(ctx, esURL, index, nil, logger)
}

// NewWithTransport is New with a custom HTTP transport; nil uses the default.
func NewWithTransport(ctx context.Context, esURL, index string, transport http.RoundTripper, logger *slog.Logger) (*Engine, error) {
	if index == "" {
		index = DefaultIndexName
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	e := &Engine{client: client, index: index, logger: logger.With(slog.String("index", index))}
	if err := e.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return e, nil
}

// roundTrip finishes an esapi call. It closes the body, turns error
// statuses other than the tolerated ones into errors and decodes a
// successful body into out when out is non-nil. The returned status lets
// callers branch on a tolerated one.
func roundTrip(op string, res *esapi.Response, err error, out any, tolerated ...int) (int, error) {
	if err != nil {
		return 0, fmt.Errorf("elasticsearch %s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()

	if slices.Contains(tolerated, res.StatusCode) {
		return res.StatusCode, nil
	}
	if res.IsError() {
		return res.StatusCode, responseError("elasticsearch "+op, res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("elasticsearch %s: decode response: %w", op, err)
		}
	}
	return res.StatusCode, nil
}

func encode(op string, v any) (io.Reader, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s: marshal: %w", op, err)
	}
	return bytes.NewReader(body), nil
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	_, err = roundTrip("ping", res, err, nil)
	return err
}

func (e *Engine) ensureIndex(ctx context.Context) error {
	idx := e.client.Indices
	res, err := idx.Exists([]string{e.index}, idx.Exists.WithContext(ctx))
	status, err := roundTrip("index exists", res, err, nil, http.StatusNotFound)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		e.logger.Info("elasticsearch index already exists")
		return nil
	}

	res, err = idx.Create(e.index,
		idx.Create.WithBody(strings.NewReader(buildIndexMapping())),
		idx.Create.WithContext(ctx),
	)
	if _, err := roundTrip("create index", res, err, nil); err != nil {
		return err
	}
	e.logger.Info("elasticsearch index created")
	return nil
}

// Patch sends p as a partial update, creating the document when absent.
func (e *Engine) Patch(ctx context.Context, id string, p *domain.Patch) error {
	body, err := encode("patch", map[string]any{
		"doc":           patchDoc{ID: id, Patch: p},
		"doc_as_upsert": true,
	})
	if err != nil {
		return err
	}

	upd := e.client.Update
	res, err := upd(e.index, id, body,
		upd.WithRetryOnConflict(retryOnConflict),
		upd.WithRefresh("true"),
		upd.WithContext(ctx),
	)
	if _, err := roundTrip("patch", res, err, nil); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "patched beer document", slog.String("beer_id", id))
	return nil
}

// Delete removes one document. Deleting a missing document succeeds.
func (e *Engine) Delete(ctx context.Context, id string) error {
	del := e.client.Delete
	res, err := del(e.index, id, del.WithRefresh("true"), del.WithContext(ctx))
	if _, err := roundTrip("delete", res, err, nil, http.StatusNotFound); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "deleted beer document", slog.String("beer_id", id))
	return nil
}

// DeleteByBrewery removes every document of breweryID and reports how many
// were deleted.
func (e *Engine) DeleteByBrewery(ctx context.Context, breweryID string) (int, error) {
	body, err := encode("delete by brewery", map[string]any{
		"query": map[string]any{"term": map[string]any{"brewery_id": breweryID}},
	})
	if err != nil {
		return 0, err
	}

	dbq := e.client.DeleteByQuery
	res, err := dbq([]string{e.index}, body,
		dbq.WithConflicts("proceed"),
		dbq.WithRefresh(true),
		dbq.WithContext(ctx),
	)
	var out struct {
		Deleted int `json:"deleted"`
	}
	if _, err := roundTrip("delete by brewery", res, err, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// Get fetches one document. Documents that hold counters only are reported
// as engine.ErrNotFound, like missing ones.
func (e *Engine) Get(ctx context.Context, id string) (*domain.BeerDocument, error) {
	var out getResponse
	res, err := e.client.Get(e.index, id, e.client.Get.WithContext(ctx))
	status, err := roundTrip("get", res, err, &out, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || !out.Found || !out.Source.Searchable() {
		return nil, engine.ErrNotFound
	}
	return &out.Source, nil
}

func (e *Engine) search(ctx context.Context, op string, query map[string]any) (*searchResponse, error) {
	body, err := encode(op, query)
	if err != nil {
		return nil, err
	}

	s := e.client.Search
	res, err := s(s.WithIndex(e.index), s.WithBody(body), s.WithContext(ctx))
	var out searchResponse
	if _, err := roundTrip(op, res, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs q and returns one page of searchable documents.
func (e *Engine) Search(ctx context.Context, q *domain.Query) (*domain.Result, error) {
	resp, err := e.search(ctx, "search", buildSearchQuery(q))
	if err != nil {
		return nil, err
	}

	beers := make([]domain.BeerDocument, len(resp.Hits.Hits))
	for i, h := range resp.Hits.Hits {
		beers[i] = h.Source
	}
	return &domain.Result{
		Beers:   beers,
		Total:   resp.Hits.Total.Value,
		Page:    q.Page,
		PerPage: q.PerPage,
		TookMs:  int64(resp.Took),
	}, nil
}

// Suggest returns up to limit distinct beer names matching prefix on the
// edge n-gram subfield.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	// Over-fetch since several beers can share a name.
	resp, err := e.search(ctx, "suggest", map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   []any{map[string]any{"match": map[string]any{"name.autocomplete": prefix}}},
				"filter": []any{searchableFilter()},
			},
		},
		"size":    limit * 2,
		"_source": []string{"name"},
		"sort":    []any{map[string]any{"_score": "desc"}, map[string]any{"opinions_count": "desc"}},
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, limit)
	for _, h := range resp.Hits.Hits {
		if len(names) == limit {
			break
		}
		if !slices.Contains(names, h.Source.Name) {
			names = append(names, h.Source.Name)
		}
	}
	return names, nil
}

// BulkIndex writes whole documents through the bulk API. Per-item failures
// are collected into one error.
func (e *Engine) BulkIndex(ctx context.Context, docs []domain.BeerDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range docs {
		action := map[string]any{"index": map[string]any{"_index": e.index, "_id": docs[i].ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(&docs[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode %s: %w", docs[i].ID, err)
		}
	}

	bulk := e.client.Bulk
	res, err := bulk(&buf, bulk.WithIndex(e.index), bulk.WithRefresh("true"), bulk.WithContext(ctx))
	var out bulkResponse
	if _, err := roundTrip("bulk index", res, err, &out); err != nil {
		return err
	}
	if out.Errors {
		var failed []string
		for _, item := range out.Items {
			for _, r := range item {
				if r.Error.Type != "" {
					failed = append(failed, fmt.Sprintf("id=%s: %s: %s", r.ID, r.Error.Type, r.Error.Reason))
				}
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(failed, "; "))
	}

	e.logger.InfoContext(ctx, "bulk indexed beers", slog.Int("count", len(docs)))
	return nil
}

// DeleteIndex drops the index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	idx := e.client.Indices
	res, err := idx.Delete([]string{e.index}, idx.Delete.WithContext(ctx))
	if _, err := roundTrip("delete index", res, err, nil, http.StatusNotFound); err != nil {
		return err
	}
	e.logger.Info("elasticsearch index deleted")
	return nil
}

func buildSearchQuery(q *domain.Query) map[string]any {
	must := map[string]any{"match_all": map[string]any{}}
	if q.Text != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":         q.Text,
				"fields":        []string{"name^3", "name.autocomplete^2", "brewery_name"},
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	}

	filter := []any{searchableFilter()}
	if q.BreweryID != nil {
		filter = append(filter, map[string]any{"term": map[string]any{"brewery_id": *q.BreweryID}})
	}
	if q.MinRating != nil {
		filter = append(filter, map[string]any{"range": map[string]any{"rating": map[string]any{"gte": *q.MinRating}}})
	}

	return map[string]any{
		"query":            map[string]any{"bool": map[string]any{"must": []any{must}, "filter": filter}},
		"from":             q.Offset(),
		"size":             q.PerPage,
		"track_total_hits": true,
		"sort":             buildSort(q),
	}
}

// searchableFilter hides documents that only hold counters so far.
func searchableFilter() map[string]any {
	return map[string]any{"exists": map[string]any{"field": "name"}}
}

// sortFields maps the sort keys to their index field; relevance is absent
// and sorts by score.
var sortFields = map[string]string{
	domain.SortName:      "name.keyword",
	domain.SortRating:    "rating",
	domain.SortOpinions:  "opinions_count",
	domain.SortFavorites: "favorites_count",
}

// buildSort breaks ties by name, and by id when sorting by name already.
func buildSort(q *domain.Query) []any {
	field, ok := sortFields[q.SortBy]
	if !ok {
		return []any{map[string]any{"_score": "desc"}, map[string]any{"name.keyword": "asc"}}
	}
	order := "asc"
	if q.Descending {
		order = "desc"
	}
	tie := map[string]any{"name.keyword": "asc"}
	if q.SortBy == domain.SortName {
		tie = map[string]any{"id": "asc"}
	}
	return []any{map[string]any{field: order}, tie}
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var out struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &out) == nil && out.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, out.Error.Type, out.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}
