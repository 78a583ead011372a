package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanord8/YL-portal-sub002/internal/config"
)

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("wraps original message", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{
			logger:   newTestLogger(),
			writer:   mockWriter,
			dlqTopic: "movement_events_dlq",
			now:      func() time.Time { return fixed },
		}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			var payload DeadLetterMessage
			if err := json.Unmarshal(msgs[0].Value, &payload); err != nil {
				return false
			}
			return string(msgs[0].Key) == "movement-1" &&
				payload.OriginalValue == "not json" &&
				payload.Reason == "decode_failed" &&
				payload.Timestamp == "2024-03-01T12:00:00Z" &&
				string(msgs[0].Headers[0].Value) == "decode_failed"
		})).Return(nil).Once()

		err := producer.PublishToDLQ(ctx, "movement-1", []byte("not json"), "decode_failed")
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("writer error", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "movement_events_dlq"}
		writerErr := errors.New("kafka DLQ write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.PublishToDLQ(ctx, "k", []byte("v"), "r")
		assert.ErrorIs(t, err, writerErr)
		mockWriter.AssertExpectations(t)
	})

	t.Run("disabled writer", func(t *testing.T) {
		producer := &DLQProducer{logger: newTestLogger(), dlqTopic: "movement_events_dlq"}

		err := producer.PublishToDLQ(ctx, "k", []byte("v"), "r")
		assert.ErrorIs(t, err, ErrDLQDisabled)
	})
}

func TestDLQProducer_Close(t *testing.T) {
	t.Run("closes writer", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "dlq"}
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("nil writer", func(t *testing.T) {
		producer := &DLQProducer{logger: newTestLogger(), dlqTopic: "dlq"}
		assert.NoError(t, producer.Close())
	})
}

func TestNewDLQProducer_DisabledWithoutTopic(t *testing.T) {
	producer, err := NewDLQProducer(context.Background(), newTestLogger(), &config.KafkaConfig{Brokers: "localhost:9092"})
	require.NoError(t, err)
	assert.Nil(t, producer)
}
