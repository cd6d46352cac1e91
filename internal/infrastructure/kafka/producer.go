package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"snapvault/internal/entity"
	"snapvault/pkg/kafka/producer"
)

type EventProducer struct {
	*producer.Producer
	topic string
}

func NewEventProducer(p *producer.Producer, topic string) *EventProducer {
	return &EventProducer{p, topic}
}

func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msgs = append(msgs, kafka.Message{
			Topic: ep.topic,
			Key:   []byte(event.AggregateID.String()),
			Value: event.Payload,
		})
	}

	err := ep.Writer.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}
