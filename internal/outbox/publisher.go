package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

// Broker publishes one event to the message broker.
type Broker interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher polls the outbox table and publishes unpublished events. At-least-
// once: a crash between publish and mark leaves the row for redelivery.
type Publisher struct {
	repo     *Repository
	producer Broker
	interval time.Duration
	batch    int
}

func NewPublisher(repo *Repository, producer Broker) *Publisher {
	return &Publisher{
		repo:     repo,
		producer: producer,
		interval: 2 * time.Second,
		batch:    50,
	}
}

// Start begins the polling loop. It blocks until the context is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishBatch(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) {
	log := observability.GetLogger(ctx)

	rows, err := p.repo.Fetch(ctx, p.batch)
	if err != nil {
		log.Error("outbox query error", zap.Error(err))
		return
	}

	for _, row := range rows {
		if err := p.producer.Publish(ctx, row.Topic, []byte(row.Key), row.Payload); err != nil {
			log.Error("broker publish failed", zap.String("topic", row.Topic), zap.Error(err))
			continue
		}

		if err := p.repo.MarkPublished(ctx, row.ID); err != nil {
			log.Error("outbox mark published error", zap.String("id", row.ID), zap.Error(err))
		}
	}
}
