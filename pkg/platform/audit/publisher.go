package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher emits audit events. Emission is best-effort: audit must never
// fail the business operation that produced the event.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// NopPublisher discards events. Useful in tests and for deployments without
// a broker.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) {}

// KafkaPublisher writes events to a Kafka topic keyed by tenant slug so one
// tenant's trail stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithLogger(l *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) { p.logger = l }
}

// NewKafkaPublisher connects to the given brokers. Close releases the client.
func NewKafkaPublisher(brokers []string, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	p := &KafkaPublisher{client: client, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Emit produces the event asynchronously. Failures are logged, never
// returned: losing an audit record must not abort the audited operation.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("audit event marshal failed", "action", event.Action, "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.TenantSlug),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event publish failed",
				"action", event.Action, "tenant", event.TenantSlug, "error", err)
		}
	})
}

// Close flushes pending records and shuts down the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return err
	}
	p.client.Close()
	return nil
}
