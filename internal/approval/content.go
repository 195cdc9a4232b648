package approval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/models"
	"contentflow/internal/validation"
)

// CreateContent validates and stores a new draft item of one of the tenant's clients.
func (s *Service) CreateContent(ctx context.Context, item *models.ContentItem) error {
	item.Title = strings.TrimSpace(item.Title)
	if err := validation.ValidateTitle(item.Title); err != nil {
		return err
	}
	if err := validation.ValidateMediaRefs(item.MediaRefs); err != nil {
		return err
	}
	client, err := s.store.GetClient(ctx, item.TenantID, item.ClientID)
	if err != nil {
		return err
	}
	if err := s.store.CreateContentItem(ctx, item); err != nil {
		return err
	}
	item.ClientName = client.Name
	slog.Info("content item created", "content_id", item.ID, "tenant_id", item.TenantID)
	return nil
}

// GetContent returns a content item within a tenant.
func (s *Service) GetContent(ctx context.Context, tenantID, id uuid.UUID) (*models.ContentItem, error) {
	return s.store.GetContentItem(ctx, tenantID, id)
}

// ListContent returns a client's content items.
func (s *Service) ListContent(ctx context.Context, tenantID, clientID uuid.UUID) ([]models.ContentItem, error) {
	return s.store.ListContentByClient(ctx, tenantID, clientID)
}

// UpdateContent replaces the descriptive fields of an editable item.
// Editing always clears the internal approval flag.
func (s *Service) UpdateContent(ctx context.Context, item *models.ContentItem) error {
	item.Title = strings.TrimSpace(item.Title)
	if err := validation.ValidateTitle(item.Title); err != nil {
		return err
	}
	if err := validation.ValidateMediaRefs(item.MediaRefs); err != nil {
		return err
	}
	return s.store.UpdateContentFields(ctx, item)
}

// SetInternalApproval sets or clears the internal gate. Only reviewers and admins may do this.
func (s *Service) SetInternalApproval(ctx context.Context, tenantID, id uuid.UUID, approved bool, reviewer *models.User) error {
	if reviewer == nil || !reviewer.IsReviewer() {
		return ErrNotReviewer
	}
	if err := s.store.SetInternalApproval(ctx, tenantID, id, approved, reviewer.ID); err != nil {
		return err
	}
	slog.Info("internal approval changed", "content_id", id, "approved", approved, "reviewer_id", reviewer.ID)
	return nil
}

// Transition fires a direct trigger (submit, rework, schedule, publish, cancel) on an item.
// publishAt, when non-nil, replaces the publish date as part of a schedule.
//
// Triggers that need an approval link are rejected; use IssueLink or a client token instead.
func (s *Service) Transition(ctx context.Context, tenantID, id uuid.UUID, trigger lifecycle.Trigger, publishAt *time.Time) (*models.ContentItem, error) {
	item, err := s.store.GetContentItem(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	to, err := lifecycle.NextDirect(item.Status, trigger, lifecycle.Guard{
		InternalApproved: item.InternalApproved,
		HasPublishDate:   publishAt != nil || item.PublishAt != nil,
	})
	if err != nil {
		return nil, err
	}

	update := db.TransitionUpdate{
		TenantID:  tenantID,
		ContentID: id,
		From:      item.Status,
		To:        to,
		ClearGate: trigger == lifecycle.TriggerRework,
	}
	if trigger == lifecycle.TriggerSchedule {
		update.PublishAt = publishAt
	}
	if err := s.store.TransitionContent(ctx, update); err != nil {
		return nil, err
	}

	slog.Info("content transitioned", "content_id", id, "trigger", trigger, "from", item.Status, "to", to)
	return s.store.GetContentItem(ctx, tenantID, id)
}

// DueForPublishing returns scheduled items whose publish date has passed.
func (s *Service) DueForPublishing(ctx context.Context, limit int) ([]models.ContentItem, error) {
	return s.store.ListDueScheduled(ctx, s.now(), limit)
}
