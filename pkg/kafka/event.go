package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

// Headers copied from the envelope so brokers, DLQ tooling and consumers can
// route on them without decoding the value.
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderSource        = "source"
	HeaderCorrelationID = "correlation_id"
)

// codec is used for every envelope on the bus. It is wire-compatible with
// encoding/json so events produced by any HoppyHub service decode everywhere.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEmptyEnvelope is returned when a message carries no payload at all.
var ErrEmptyEnvelope = errors.New("kafka: empty event envelope")

// Event is the envelope every HoppyHub domain event travels in.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent wraps data in a version 1 envelope stamped with a fresh id and
// the current UTC time.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	payload, err := codec.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          payload,
		Metadata:      map[string]string{},
	}, nil
}

// WithCorrelationID sets the correlation ID on the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithVersion overrides the payload schema version.
func (e *Event) WithVersion(v int) *Event {
	e.Version = v
	return e
}

// WithMetadata adds a key-value pair to the event metadata.
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// message builds the record published for e: the JSON envelope as value,
// the aggregate id as key and the identity headers.
func (e *Event) message(topic string) (kafka.Message, error) {
	value, err := e.Marshal()
	if err != nil {
		return kafka.Message{}, err
	}
	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(e.EventType)},
		{Key: HeaderEventID, Value: []byte(e.EventID)},
		{Key: HeaderSource, Value: []byte(e.Source)},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(e.CorrelationID)})
	}
	return kafka.Message{Topic: topic, Key: []byte(e.AggregateID), Value: value, Headers: headers}, nil
}

// Marshal serializes the event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return codec.Marshal(e)
}

// UnmarshalEvent decodes an envelope. Values that are not JSON objects are
// rejected by the decoder.
func UnmarshalEvent(data []byte) (*Event, error) {
	if len(data) == 0 {
		return nil, ErrEmptyEnvelope
	}
	event := new(Event)
	if err := codec.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	return event, nil
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return codec.Unmarshal(e.Data, target)
}
