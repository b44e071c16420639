package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/models"
	"github.com/minhngoc274/chatcore/pkg/util"
)

// EventPublisher appends domain events to the durable event log. Publishing
// is best-effort from the caller's point of view: a failed append is logged
// and counted but never fails the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
	Close() error
}

type kafkaPublisher struct {
	writer  *kafka.Writer
	metrics *prometheus.HistogramVec
}

func NewEventPublisher(cfg config.KafkaConfig) (EventPublisher, error) {
	if !cfg.Enabled {
		return &noopPublisher{}, nil
	}

	metrics, err := util.GetHistogramVec("chat_events_published", "status", "topic", "type")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &kafkaPublisher{
		writer:  writer,
		metrics: metrics,
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *models.Event) error {
	start := time.Now()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PartitionKey()),
		Value: value,
		Time:  event.Timestamp,
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
		log.Errorw(ctx, "Failed to publish event",
			"error", err,
			"event_id", event.EventID,
			"type", event.Type,
		)
	}
	p.metrics.
		WithLabelValues(outcome, p.writer.Topic, string(event.Type)).
		Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// noopPublisher is used when Kafka is disabled
type noopPublisher struct{}

func (n *noopPublisher) Publish(ctx context.Context, event *models.Event) error {
	log.Debugw(ctx, "Event publishing is disabled", "type", event.Type)
	return nil
}

func (n *noopPublisher) Close() error {
	return nil
}
