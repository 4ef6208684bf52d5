package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Worker drains the outbox into Kafka. The outbox write is the source of
// truth; delivery here is at-least-once and consumers must dedupe on event id.
type Worker struct {
	store    Store
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewWorker connects a Kafka producer for the audit topic.
func NewWorker(store Store, brokers []string, topic string, logger *slog.Logger) (*Worker, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Worker{
		store:    store,
		client:   client,
		topic:    topic,
		logger:   logger,
		interval: 2 * time.Second,
		batch:    100,
	}, nil
}

// Run polls the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.publishBatch(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit publish batch failed", "error", err)
			}
		}
	}
}

func (w *Worker) publishBatch(ctx context.Context) error {
	events, err := w.store.ListUnpublished(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("list outbox: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(toPayload(event))
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", event.ID, err)
		}
		record := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(event.OfficerID.String()),
			Value: value,
		}
		// Synchronous produce keeps outbox ordering per officer; throughput
		// is not a concern at audit volumes.
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			// Stop the batch; unmarked events are retried next tick.
			w.markPublished(ctx, published)
			return fmt.Errorf("produce event %s: %w", event.ID, err)
		}
		published = append(published, event.ID)
	}
	w.markPublished(ctx, published)
	return nil
}

func (w *Worker) markPublished(ctx context.Context, ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	if err := w.store.MarkPublished(ctx, ids); err != nil {
		w.logger.ErrorContext(ctx, "mark audit events published failed", "error", err)
	}
}

// Close flushes and tears down the Kafka producer.
func (w *Worker) Close() {
	w.client.Close()
}
