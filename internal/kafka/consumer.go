package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event MatchEvent) error

func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads messages until ctx is done. Messages that are not valid
// events are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		event, err := DecodeEvent(msg.Value)
		if err != nil {
			c.logger.Warn("skip undecodable event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func DecodeEvent(data []byte) (MatchEvent, error) {
	var event MatchEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return MatchEvent{}, err
	}
	if event.Type == "" || event.ID == "" {
		return MatchEvent{}, errors.New("event type and id are required")
	}
	return event, nil
}
