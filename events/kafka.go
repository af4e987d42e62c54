package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher lazily manages writers per topic.
type KafkaPublisher struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// Publish writes evt as JSON with its type in the message headers.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, evt Event) error {
	msg, err := encode(evt)
	if err != nil {
		return err
	}
	return p.writerForTopic(topic).WriteMessages(ctx, msg)
}

func encode(evt Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(evt.Key),
		Value:   value,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(evt.Type)}},
		Time:    evt.OccurredAt,
	}, nil
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
