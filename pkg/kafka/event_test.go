package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opinionPayload struct {
	BeerID        string  `json:"beer_id"`
	OpinionsCount int     `json:"opinions_count"`
	NewBeerRating float64 `json:"new_beer_rating"`
}

func TestNewEvent(t *testing.T) {
	payload := opinionPayload{BeerID: "beer-1", OpinionsCount: 3, NewBeerRating: 7.5}
	event, err := NewEvent("BeerOpinionChanged", "beer-1", "beer", "opinions-service", payload)
	require.NoError(t, err)

	assert.Len(t, event.EventID, 36)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "beer", event.AggregateType)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.NotNil(t, event.Metadata)
	assert.JSONEq(t, `{"beer_id":"beer-1","opinions_count":3,"new_beer_rating":7.5}`, string(event.Data))

	var got opinionPayload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, payload, got)

	other, err := NewEvent("BeerOpinionChanged", "beer-1", "beer", "opinions-service", payload)
	require.NoError(t, err)
	assert.NotEqual(t, event.EventID, other.EventID)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("BeerCreated", "beer-1", "beer", "beers-service", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BeerCreated")
}

func TestEvent_Builders(t *testing.T) {
	event := &Event{EventType: "UserDeleted"}

	assert.Same(t, event, event.WithCorrelationID("corr-1").WithVersion(2).WithMetadata("actor", "admin"))
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, 2, event.Version)
	assert.Equal(t, map[string]string{"actor": "admin"}, event.Metadata)
}

func TestEvent_EnvelopeRoundTrip(t *testing.T) {
	original, err := NewEvent("BreweryUpdated", "brew-456", "brewery", "beers-service", map[string]string{"name": "Browar Stu Mostow"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-abc").WithMetadata("user", "admin")

	raw, err := original.Marshal()
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	for _, key := range []string{"event_id", "event_type", "aggregate_id", "aggregate_type", "version", "timestamp", "source", "correlation_id", "data", "metadata"} {
		assert.Contains(t, wire, key)
	}

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.True(t, original.Timestamp.Equal(restored.Timestamp))
	restored.Timestamp = original.Timestamp
	assert.JSONEq(t, string(original.Data), string(restored.Data))
	restored.Data = original.Data
	assert.Equal(t, original, restored)
}

func TestEvent_OmitsEmptyOptionalFields(t *testing.T) {
	raw, err := (&Event{EventID: "e1", Data: json.RawMessage(`{}`)}).Marshal()
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.NotContains(t, wire, "correlation_id")
	assert.NotContains(t, wire, "metadata")
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent(nil)
	assert.ErrorIs(t, err, ErrEmptyEnvelope)

	for _, raw := range []string{`{broken json`, `"a string"`, `[1,2]`} {
		_, err := UnmarshalEvent([]byte(raw))
		assert.Error(t, err, raw)
	}

	err = (&Event{Data: json.RawMessage(`not json`)}).UnmarshalData(&map[string]string{})
	assert.Error(t, err)
}

func TestEvent_Message(t *testing.T) {
	event, err := NewEvent("BeerFavoritesCountChanged", "beer-9", "beer", "favorites-service", map[string]int{"favorites_count": 4})
	require.NoError(t, err)

	msg, err := event.message(Topic("beer", "favorites_count_changed"))
	require.NoError(t, err)

	assert.Equal(t, "hoppyhub.beer.favorites_count_changed", msg.Topic)
	assert.Equal(t, []byte("beer-9"), msg.Key)
	h := NewKafkaHeaderCarrier(&msg.Headers)
	assert.Equal(t, "BeerFavoritesCountChanged", h.Get(HeaderEventType))
	assert.Equal(t, event.EventID, h.Get(HeaderEventID))
	assert.Equal(t, "favorites-service", h.Get(HeaderSource))
	assert.Empty(t, h.Get(HeaderCorrelationID))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)

	event.WithCorrelationID("corr-7")
	msg, err = event.message("t")
	require.NoError(t, err)
	assert.Contains(t, msg.Headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte("corr-7")})
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "hoppyhub.beer.opinion_changed", Topic("beer", "opinion_changed"))
	assert.Equal(t, "hoppyhub.user.deleted", Topic("user", "deleted"))
	assert.Equal(t, "hoppyhub.dlq.hoppyhub.user.deleted", DLQTopic(Topic("user", "deleted")))
}
