package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	publisher, err := newPublisher(ch)
	require.NoError(t, err)
	assert.Equal(t, []string{"booking.events:topic"}, ch.declared)

	event := NewEvent(BookingCheckedIn, 42, "booked", "in_progress", 7)
	require.NoError(t, publisher.Publish(context.TODO(), event))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, Exchange, got.exchange)
	assert.Equal(t, BookingCheckedIn, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, event.ID.String(), got.msg.MessageId)

	decoded := Event{}
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, int64(42), decoded.BookingID)
	assert.Equal(t, "booked", decoded.OldStatus)
	assert.Equal(t, "in_progress", decoded.NewStatus)
	assert.Equal(t, int64(7), decoded.ChangedBy)

	require.NoError(t, publisher.Close())
	assert.True(t, ch.closed)
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: amqp.ErrClosed}
	publisher, err := newPublisher(ch)
	require.NoError(t, err)
	err = publisher.Publish(context.TODO(), NewEvent(BookingCreated, 1, "", "booked", 7))
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}

func TestNewPublisherDeclareError(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newPublisher(ch)
	assert.Error(t, err)
	assert.True(t, ch.closed)
}

func TestCreatedEventOmitsOldStatus(t *testing.T) {
	body, err := json.Marshal(NewEvent(BookingCreated, 1, "", "booked", 7))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "old_status")
}

func TestNoopPublisher(t *testing.T) {
	publisher := NewNoopPublisher()
	assert.NoError(t, publisher.Publish(context.TODO(), NewEvent(BookingCancelled, 1, "booked", "cancelled", 7)))
	assert.NoError(t, publisher.Close())
}
