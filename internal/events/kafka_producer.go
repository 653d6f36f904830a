package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes rider locations to the location topic as bare
// models.LocationUpdate values (the consumer's input) and every other event
// as an Event envelope to the events topic. Messages are keyed by Event.Key.
type KafkaPublisher struct {
	writer        messageWriter
	locationTopic string
	eventsTopic   string
}

func NewKafkaPublisher(brokers []string, locationTopic, eventsTopic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, locationTopic: locationTopic, eventsTopic: eventsTopic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	topic := k.eventsTopic
	var payload interface{} = e
	if e.Type == TypeRiderLocation {
		topic = k.locationTopic
		payload = e.Data
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(e.Key),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
