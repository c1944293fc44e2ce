package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sgad/referee-service/internal/guard"
	"github.com/sgad/referee-service/internal/repository"
)

// Publisher is satisfied by *KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller drains referee_outbox and publishes each event.
// Delivery is at-least-once: a row is only marked after its publish succeeded.
type OutboxPoller struct {
	db          repository.DBTX
	repo        repository.OutboxRepository
	producer    Publisher
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	topicPrefix string
	breaker     *guard.CircuitBreaker
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(db repository.DBTX, repo repository.OutboxRepository, producer Publisher, logger *slog.Logger, cfg *Config) *OutboxPoller {
	return &OutboxPoller{
		db:          db,
		repo:        repo,
		producer:    producer,
		logger:      logger,
		interval:    cfg.OutboxPollInterval,
		batchSize:   cfg.OutboxBatchSize,
		topicPrefix: cfg.KafkaTopicPrefix,
		breaker:     guard.NewCircuitBreaker(cfg.OutboxBreakerThreshold, cfg.OutboxBreakerReset),
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			n, err := p.PollOnce(ctx)
			if err != nil {
				p.logger.Error("outbox poll error", "error", err)
				continue
			}
			if n > 0 {
				p.logger.Info("published outbox events", "count", n)
			}
		}
	}
}

// PollOnce publishes one batch and returns how many events were marked published.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	events, err := p.repo.FetchUnpublished(ctx, p.db, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(events))
	// Once a row on a topic fails, later rows on that topic wait for the
	// next batch so consumers never see them out of order.
	held := make(map[string]bool)
	for _, e := range events {
		topic := e.Topic(p.topicPrefix)
		if held[topic] {
			continue
		}
		msg, err := json.Marshal(e)
		if err != nil {
			held[topic] = true
			p.logger.Error("encode outbox event", "event_id", e.EventID, "error", err)
			continue
		}
		if res := p.breaker.Check(topic); !res.Allowed {
			held[topic] = true
			p.logger.Debug("skipping outbox event", "event_id", e.EventID, "topic", topic, "reason", res.Reason)
			continue
		}
		if err := p.producer.Publish(ctx, topic, []byte(e.AggregateID), msg); err != nil {
			held[topic] = true
			p.breaker.RecordFailure(topic)
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "topic", topic, "error", err)
			continue
		}
		p.breaker.RecordSuccess(topic)
		published = append(published, e.ID)
	}

	if err := p.repo.MarkPublished(ctx, p.db, published); err != nil {
		return 0, fmt.Errorf("mark %d events published: %w", len(published), err)
	}
	return len(published), nil
}
