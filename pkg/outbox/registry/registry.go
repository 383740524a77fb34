package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
)

// schema pins an event type to the aggregate it must be emitted for and the
// struct its data decodes into.
type schema struct {
	aggregate enums.OutboxAggregateType
	newData   func() any
}

var schemas = map[enums.OutboxEventType]schema{
	enums.EventOrderCreated: {
		aggregate: enums.AggregateOrder,
		newData:   func() any { return &payloads.OrderCreatedEvent{} },
	},
	enums.EventOrderCanceled: {
		aggregate: enums.AggregateOrder,
		newData:   func() any { return &payloads.OrderCanceledEvent{} },
	},
	enums.EventOrderStatusChanged: {
		aggregate: enums.AggregateOrder,
		newData:   func() any { return &payloads.OrderStatusChangedEvent{} },
	},
	enums.EventOrderRated: {
		aggregate: enums.AggregateOrder,
		newData:   func() any { return &payloads.OrderRatedEvent{} },
	},
	enums.EventReviewCreated: {
		aggregate: enums.AggregateReview,
		newData:   func() any { return &payloads.ReviewCreatedEvent{} },
	},
}

// EventDescriptor is where a resolved event goes on the broker.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row that passed validation, with its typed data.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// Key is the partition key. Events of one aggregate share it and stay ordered.
func (r ResolvedEvent) Key() []byte {
	return []byte(r.Envelope.AggregateID)
}

// NonRetryableError marks rows that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

// EventRegistry resolves outbox rows against the known event schemas.
type EventRegistry struct {
	topic string
}

// NewEventRegistry routes every event type to topic.
func NewEventRegistry(topic string) (*EventRegistry, error) {
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &EventRegistry{topic: topic}, nil
}

// Resolve checks the row against its schema and decodes the envelope data.
// Every failure is non-retryable: the row content never changes.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	sc, ok := schemas[event.EventType]
	if !ok {
		return nil, permanent("unsupported event type %s", event.EventType)
	}
	if sc.aggregate != event.AggregateType {
		return nil, permanent("%s belongs to %s aggregates, row has %s", event.EventType, sc.aggregate, event.AggregateType)
	}
	if event.AggregateID == uuid.Nil {
		return nil, permanent("missing aggregate_id")
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, permanent("decode envelope: %w", err)
	}
	if envelope.AggregateID != event.AggregateID.String() {
		return nil, permanent("envelope aggregate %q does not match row %s", envelope.AggregateID, event.AggregateID)
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, permanent("payload missing for %s", event.EventType)
	}
	payload := sc.newData()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, permanent("decode %s payload: %w", event.EventType, err)
	}

	return &ResolvedEvent{
		Descriptor: EventDescriptor{
			EventType:     event.EventType,
			AggregateType: sc.aggregate,
			Topic:         r.topic,
		},
		Envelope: envelope,
		Payload:  payload,
	}, nil
}
