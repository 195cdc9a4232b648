package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/metrics"
	"contentflow/internal/models"
)

// Channel is the external system scheduled content is published to.
type Channel interface {
	Publish(ctx context.Context, item models.ContentItem) error
}

// LogChannel is a Channel that only logs. Used when no real channel is configured.
type LogChannel struct{}

// Publish logs the item.
func (LogChannel) Publish(ctx context.Context, item models.ContentItem) error {
	slog.Info("publishing content", "content_id", item.ID, "tenant_id", item.TenantID, "title", item.Title)
	return nil
}

// ContentSource lists due items and records their publication.
// *approval.Service implements it.
type ContentSource interface {
	DueForPublishing(ctx context.Context, limit int) ([]models.ContentItem, error)
	Transition(ctx context.Context, tenantID, id uuid.UUID, trigger lifecycle.Trigger, publishAt *time.Time) (*models.ContentItem, error)
}

// Publisher moves scheduled content whose publish date has passed to published.
type Publisher struct {
	source   ContentSource
	channel  Channel
	interval time.Duration
	batch    int
}

// NewPublisher creates a new publish job.
func NewPublisher(source ContentSource, channel Channel, interval time.Duration) *Publisher {
	if channel == nil {
		channel = LogChannel{}
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Publisher{
		source:   source,
		channel:  channel,
		interval: interval,
		batch:    50,
	}
}

// Start begins the publish loop and returns when ctx is done.
func (p *Publisher) Start(ctx context.Context) {
	slog.Info("publisher started", "interval", p.interval)

	// Run immediately on start
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("publisher stopped")
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce publishes every due item and returns how many were published.
func (p *Publisher) RunOnce(ctx context.Context) int {
	items, err := p.source.DueForPublishing(ctx, p.batch)
	if err != nil {
		slog.Error("publisher: failed to list due content", "error", err)
		return 0
	}

	published := 0
	for _, item := range items {
		// Check context before each item
		select {
		case <-ctx.Done():
			return published
		default:
		}

		if err := p.channel.Publish(ctx, item); err != nil {
			metrics.RecordPublish(err)
			slog.Warn("publisher: channel rejected content, will retry", "content_id", item.ID, "error", err)
			continue
		}

		_, err := p.source.Transition(ctx, item.TenantID, item.ID, lifecycle.TriggerPublish, nil)
		metrics.RecordPublish(err)
		switch {
		case err == nil:
			published++
		case errors.Is(err, db.ErrStateConflict):
			slog.Info("publisher: content changed before publish was recorded", "content_id", item.ID)
		default:
			slog.Error("publisher: failed to record publish", "content_id", item.ID, "error", err)
		}
	}
	return published
}
