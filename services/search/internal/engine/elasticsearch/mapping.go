package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for beer documents.
const DefaultIndexName = "hoppyhub_beers"

// buildIndexMapping returns the JSON settings and mapping for the beers
// index. Names are folded to ASCII so "Kölsch" matches "kolsch", and carry an
// edge n-gram subfield for suggestions.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "beer_name": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 1,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      },
      "normalizer": {
        "sortable": {
          "type": "custom",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":              { "type": "keyword" },
      "name":            { "type": "text", "analyzer": "beer_name", "fields": { "keyword": { "type": "keyword", "normalizer": "sortable", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "brewery_id":      { "type": "keyword" },
      "brewery_name":    { "type": "text", "analyzer": "beer_name", "fields": { "keyword": { "type": "keyword" } } },
      "rating":          { "type": "double" },
      "opinions_count":  { "type": "integer" },
      "favorites_count": { "type": "integer" },
      "updated_at":      { "type": "date" }
    }
  }
}`
}
