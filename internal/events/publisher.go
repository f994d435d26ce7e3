// Package events publishes subscription transitions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// DefaultTopic receives subscription transitions when no topic is configured.
const DefaultTopic = "subscription.transitions"

// Publisher sends subscription transitions to downstream consumers.
type Publisher interface {
	PublishSubscription(ctx context.Context, ev model.SubscriptionEvent) error
	Close() error
}

// KafkaPublisher writes one message per transition, keyed by user ID so a
// user's transitions stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher creates a publisher for brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}, nil
}

// PublishSubscription writes ev as JSON.
func (p *KafkaPublisher) PublishSubscription(ctx context.Context, ev model.SubscriptionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal subscription event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "phase", Value: []byte(ev.Phase)},
		},
	})
}

// Topic returns the destination topic.
func (p *KafkaPublisher) Topic() string {
	return p.topic
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSubscription(context.Context, model.SubscriptionEvent) error { return nil }
func (NoopPublisher) Close() error                                                      { return nil }

// New returns a KafkaPublisher for brokers, or a NoopPublisher when brokers is empty.
func New(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		return NoopPublisher{}, nil
	}
	return NewKafkaPublisher(brokers, topic)
}
