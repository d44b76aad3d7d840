// Package events publishes booking lifecycle changes to Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"paradisian/pkg/kafka"
	"paradisian/pkg/model"
)

const (
	TypeBookingCreated    = "booking.created"
	TypeBookingCancelled  = "booking.cancelled"
	TypeBookingLinkFailed = "booking.link_failed"

	SchemaVersion = "1"
)

// BookingEvent is the payload of every booking lifecycle message.
type BookingEvent struct {
	Type             string    `json:"type"`
	BookingID        string    `json:"booking_id"`
	RoomID           string    `json:"room_id"`
	UserID           string    `json:"user_id"`
	ConfirmationCode string    `json:"booking_confirmation_code"`
	CheckIn          string    `json:"check_in"`
	CheckOut         string    `json:"check_out"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *model.Booking) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		RoomID:           b.RoomID,
		UserID:           b.UserID,
		ConfirmationCode: b.ConfirmationCode,
		CheckIn:          b.CheckIn.Format(model.DateLayout),
		CheckOut:         b.CheckOut.Format(model.DateLayout),
		OccurredAt:       time.Now().UTC(),
	}
}

// Decode reads a BookingEvent from msg. Unknown event types are permanent
// failures so the consumer does not retry them.
func Decode(msg kafka.Message) (*BookingEvent, error) {
	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		event.Type = msg.EventType()
	}
	switch event.Type {
	case TypeBookingCreated, TypeBookingCancelled, TypeBookingLinkFailed:
	default:
		return nil, kafka.NewPermanentError(fmt.Sprintf("unknown booking event type %q", event.Type), kafka.ErrInvalidMessage)
	}
	if event.BookingID == "" {
		return nil, kafka.NewPermanentError("booking event without booking id", kafka.ErrInvalidMessage)
	}
	return &event, nil
}

type Producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher keys every message by room id so events for one room stay
// ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	source   string
}

func NewKafkaPublisher(producer Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) BookingCreated(ctx context.Context, b *model.Booking) error {
	return p.publish(ctx, NewBookingEvent(TypeBookingCreated, b))
}

func (p *KafkaPublisher) BookingCancelled(ctx context.Context, b *model.Booking) error {
	return p.publish(ctx, NewBookingEvent(TypeBookingCancelled, b))
}

// BookingLinkFailed reports a create that stopped after a write whose outcome
// is unknown. The booking exists but may be missing from its room or user.
func (p *KafkaPublisher) BookingLinkFailed(ctx context.Context, b *model.Booking) error {
	return p.publish(ctx, NewBookingEvent(TypeBookingLinkFailed, b))
}

func (p *KafkaPublisher) publish(ctx context.Context, event BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(event.BookingID).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Noop drops every event. Used when Kafka is disabled.
type Noop struct{}

func (Noop) BookingCreated(context.Context, *model.Booking) error    { return nil }
func (Noop) BookingCancelled(context.Context, *model.Booking) error  { return nil }
func (Noop) BookingLinkFailed(context.Context, *model.Booking) error { return nil }
