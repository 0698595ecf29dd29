package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBookingEvent(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	event := BookingEvent{
		Type:               EventBookingConfirmed,
		BookingID:          "b-1",
		Email:              "guest@example.com",
		Status:             "confirmed",
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, 4),
		TotalPrice:         40000,
		Currency:           "USD",
		ConfirmationNumber: "TRV-K2J9F3-AB12C",
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	decoded, err := DecodeBookingEvent(kafka.Message{Value: data})
	require.NoError(t, err)
	assert.Equal(t, event, decoded)

	_, err = DecodeBookingEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, logrus.New())
	assert.Error(t, p.CheckConnection(t.Context()))
	assert.NoError(t, p.Close())
}

type stubReader struct {
	messages []kafka.Message
	closed   bool
}

func (r *stubReader) ReadMessage(context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *stubReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumer_ConsumeLogsHandlerErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	reader := &stubReader{messages: []kafka.Message{
		{Topic: "travel.notifications", Offset: 1, Key: []byte("b-1")},
		{Topic: "travel.notifications", Offset: 2, Key: []byte("b-2")},
	}}
	consumer := &Consumer{reader: reader, logger: logger}

	var handled []int64
	err := consumer.Consume(t.Context(), func(_ context.Context, msg kafka.Message) error {
		handled = append(handled, msg.Offset)
		if msg.Offset == 1 {
			return errors.New("smtp down")
		}
		return nil
	})

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []int64{1, 2}, handled)
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, int64(1), entry.Data["offset"])
	assert.Equal(t, "b-1", entry.Data["key"])

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}
