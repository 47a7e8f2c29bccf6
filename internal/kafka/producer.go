package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ms-eventhub/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated = "order.created"
	TypeEventCreated = "event.created"
	TypeEventUpdated = "event.updated"
	TypeEventDeleted = "event.deleted"
	TypeUserDeleted  = "user.deleted"
)

// Message is the envelope for every lifecycle notification.
type Message struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data,omitempty"`
}

func NewMessage(msgType, key string, data interface{}) Message {
	return Message{Type: msgType, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

// writer is the part of *kafka.Writer the producer needs.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer writer
	prefix string
	logger *logger.Logger
}

func NewProducer(brokers []string, prefix string, log *logger.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newProducer(w, prefix, log)
}

func newProducer(w writer, prefix string, log *logger.Logger) *Producer {
	if log == nil {
		log = logger.Discard()
	}
	return &Producer{writer: w, prefix: prefix, logger: log}
}

// Topic maps a message type to its topic: "order.created" lands on
// "<prefix>.orders".
func (p *Producer) Topic(msgType string) string {
	family, _, _ := strings.Cut(msgType, ".")
	topic := family + "s"
	if p.prefix != "" {
		topic = p.prefix + "." + topic
	}
	return topic
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	topic := p.Topic(msg.Type)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(msg.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		p.logger.LogKafka("PUBLISH_FAILED", topic, fmt.Sprintf("%s %s: %v", msg.Type, msg.Key, err))
		return err
	}
	p.logger.LogKafka("PUBLISH", topic, fmt.Sprintf("%s %s", msg.Type, msg.Key))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Noop discards messages when Kafka is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }
func (Noop) Close() error                           { return nil }
