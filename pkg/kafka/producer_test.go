package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(w *fakeWriter) *Producer {
	return NewProducerWithWriter(w, "contact-events", zapadapter.NewZapEctoLogger(zap.NewNop(), nil))
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishContactEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	err := p.PublishContactEvent(context.Background(), &ContactEvent{
		EventType:  "contact.merged",
		TenantID:   "tenant-a",
		ContactID:  "A",
		RelatedIDs: []string{"B"},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "tenant-a", string(msg.Key))
	assert.Equal(t, "contact.merged", header(msg, "event_type"))
	assert.Equal(t, SchemaVersion, header(msg, "schema_version"))

	var decoded ContactEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "A", decoded.ContactID)
	assert.Equal(t, []string{"B"}, decoded.RelatedIDs)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestProducer_EmptyBatchAndErrors(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	require.NoError(t, p.PublishContactEvents(context.Background(), nil))
	assert.Empty(t, w.messages)

	w.err = errors.New("broker down")
	assert.ErrorIs(t, p.PublishContactEvent(context.Background(), &ContactEvent{EventType: "x"}), w.err)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.Equal(t, "contact-events", p.Topic())
}
