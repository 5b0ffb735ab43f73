// Package events publishes booking lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange receiving every booking event. The routing key is the event type.
const Exchange = "booking.events"

const (
	BookingCreated   = "booking.created"
	BookingCheckedIn = "booking.checked_in"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	BookingNoShow    = "booking.no_show"
)

// Event is a committed booking status change.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	BookingID  int64     `json:"booking_id"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status"`
	ChangedBy  int64     `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent creates an event with a fresh id.
func NewEvent(eventType string, bookingID int64, oldStatus, newStatus string, changedBy int64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  bookingID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		ChangedBy:  changedBy,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to interested consumers.
type Publisher interface {

	// Publish delivers the given event.
	Publish(ctx context.Context, event Event) error

	// Close releases the publisher resources.
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher creates a publisher dropping every event, used when no broker is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (n noopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

func (n noopPublisher) Close() error {
	return nil
}

// channel is the subset of *amqp.Channel used to publish.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpPublisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

// NewAMQPPublisher dials the broker at url and declares the durable booking exchange.
func NewAMQPPublisher(url string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	publisher, err := newPublisher(ch)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	publisher.conn = conn
	return publisher, nil
}

func newPublisher(ch channel) (*amqpPublisher, error) {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &amqpPublisher{ch: ch}, nil
}

// newPublishing encodes the event as a persistent JSON message.
func newPublishing(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

func (a *amqpPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch.PublishWithContext(ctx, Exchange, event.Type, false, false, msg)
}

func (a *amqpPublisher) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.ch.Close()
	if a.conn != nil {
		err = errors.Join(err, a.conn.Close())
	}
	return err
}
