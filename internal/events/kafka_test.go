package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)

	err := p.Publish(context.Background(), "payments.v1", "req-1", Envelope{
		EventType:   PaymentCompleted,
		AggregateID: "req-1",
		Data:        map[string]string{"paymentNo": "123456"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "payments.v1", msg.Topic)
	assert.Equal(t, []byte("req-1"), msg.Key)

	var got Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, PaymentCompleted, got.EventType)
	assert.Equal(t, Version, got.EventVersion)
	assert.Equal(t, "req-1", got.AggregateID)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestProducer_PublishKeepsTimestamp(t *testing.T) {
	w := &fakeWriter{}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, NewProducerWithWriter(w).Publish(context.Background(), "t", "k", Envelope{EventType: PaymentFailed, OccurredAt: at}))

	var got Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}

	err := NewProducerWithWriter(w).Publish(context.Background(), "payments.v1", "k", Envelope{EventType: PaymentDismissed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish PaymentDismissed to payments.v1")
	assert.ErrorIs(t, err, w.err)
}

func TestProducer_MarshalError(t *testing.T) {
	w := &fakeWriter{}
	err := NewProducerWithWriter(w).Publish(context.Background(), "t", "k", Envelope{EventType: PaymentFailed, Data: make(chan int)})
	require.Error(t, err)
	assert.Empty(t, w.msgs)
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w).Close())
	assert.True(t, w.closed)
}
