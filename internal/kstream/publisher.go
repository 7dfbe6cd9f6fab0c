package kstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront-core/internal/model"
)

// Publisher records storefront events, one writer per topic.
type Publisher struct {
	searches MessageWriter
	orders   MessageWriter
	log      *zap.Logger
}

// NewPublisher connects to broker.
func NewPublisher(broker string, log *zap.Logger) *Publisher {
	return NewPublisherWith(
		KafkaWriter(broker, TopicCatalogSearched, log),
		KafkaWriter(broker, TopicOrdersPlaced, log),
		log,
	)
}

// NewPublisherWith uses the given writers.
func NewPublisherWith(searches, orders MessageWriter, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{searches: searches, orders: orders, log: log}
}

// RecordSearch publishes a settled catalog search, keyed by session.
func (p *Publisher) RecordSearch(ctx context.Context, evt model.CatalogSearched) error {
	return p.publish(ctx, p.searches, evt.SessionID, evt, evt.Timestamp)
}

// RecordOrder publishes a placed order, keyed by order id.
func (p *Publisher) RecordOrder(ctx context.Context, evt model.OrderPlaced) error {
	return p.publish(ctx, p.orders, evt.OrderID, evt, evt.Timestamp)
}

func (p *Publisher) publish(ctx context.Context, w MessageWriter, key string, evt any, at time.Time) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  at,
	}
	return w.WriteMessages(ctx, msg)
}

// Close flushes and closes both writers.
func (p *Publisher) Close() error {
	return errors.Join(p.searches.Close(), p.orders.Close())
}
