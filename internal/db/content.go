package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentflow/internal/models"
)

// contentColumns is the standard column list for content queries, aliased as ci.
const contentColumns = `ci.id, ci.tenant_id, ci.client_id, ci.status, ci.internal_approved,
	ci.internal_approved_by, ci.internal_approved_at, ci.title, ci.body, ci.media_refs,
	ci.publish_at, ci.created_by, ci.created_at, ci.updated_at, c.name`

const contentFrom = ` FROM content_items ci JOIN clients c ON c.id = ci.client_id `

// scanContent scans a row into a ContentItem struct.
func scanContent(row pgx.Row) (*models.ContentItem, error) {
	var item models.ContentItem
	err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.ClientID,
		&item.Status,
		&item.InternalApproved,
		&item.InternalApprovedBy,
		&item.InternalApprovedAt,
		&item.Title,
		&item.Body,
		&item.MediaRefs,
		&item.PublishAt,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.ClientName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	if !item.Status.Valid() {
		return nil, fmt.Errorf("content item %s: unknown status %q", item.ID, item.Status)
	}
	return &item, nil
}

// scanContents scans multiple rows into a slice of ContentItems.
func scanContents(rows pgx.Rows) ([]models.ContentItem, error) {
	defer rows.Close()

	items := []models.ContentItem{}
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CreateContentItem inserts a new draft content item. The client must belong to the item's tenant.
func (d *DB) CreateContentItem(ctx context.Context, item *models.ContentItem) error {
	if item.MediaRefs == nil {
		item.MediaRefs = []string{}
	}
	query := `
		INSERT INTO content_items (tenant_id, client_id, title, body, media_refs, publish_at, created_by)
		SELECT $1, c.id, $3, $4, $5, $6, $7
		FROM clients c WHERE c.id = $2 AND c.tenant_id = $1
		RETURNING id, status, internal_approved, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		item.TenantID,
		item.ClientID,
		item.Title,
		item.Body,
		item.MediaRefs,
		item.PublishAt,
		item.CreatedBy,
	).Scan(&item.ID, &item.Status, &item.InternalApproved, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrClientNotFound
	}
	return err
}

// GetContentItem retrieves a content item within a tenant.
func (d *DB) GetContentItem(ctx context.Context, tenantID, id uuid.UUID) (*models.ContentItem, error) {
	query := `SELECT ` + contentColumns + contentFrom + `WHERE ci.id = $1 AND ci.tenant_id = $2`
	return scanContent(d.Pool.QueryRow(ctx, query, id, tenantID))
}

// ListContentByClient returns a client's content items, newest first.
func (d *DB) ListContentByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]models.ContentItem, error) {
	query := `SELECT ` + contentColumns + contentFrom + `
		WHERE ci.tenant_id = $1 AND ci.client_id = $2
		ORDER BY ci.created_at DESC`
	rows, err := d.Pool.Query(ctx, query, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	return scanContents(rows)
}

// UpdateContentFields replaces the descriptive fields of an editable item.
// Any edit clears the internal approval flag.
func (d *DB) UpdateContentFields(ctx context.Context, item *models.ContentItem) error {
	if item.MediaRefs == nil {
		item.MediaRefs = []string{}
	}
	query := `
		UPDATE content_items
		SET title = $3, body = $4, media_refs = $5, publish_at = $6,
			internal_approved = FALSE, internal_approved_by = NULL, internal_approved_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = ANY($7)
		RETURNING status, internal_approved, updated_at
	`
	editable := []string{
		string(models.ContentDraft),
		string(models.ContentInProduction),
		string(models.ContentAdjustmentRequested),
	}
	err := d.Pool.QueryRow(ctx, query,
		item.ID, item.TenantID, item.Title, item.Body, item.MediaRefs, item.PublishAt, editable,
	).Scan(&item.Status, &item.InternalApproved, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d.missingOrConflict(ctx, item.TenantID, item.ID)
	}
	if err != nil {
		return err
	}
	item.InternalApprovedBy = nil
	item.InternalApprovedAt = nil
	return nil
}

// SetInternalApproval sets or clears the internal approval gate.
// Only items that have not yet been decided by the client may change it.
func (d *DB) SetInternalApproval(ctx context.Context, tenantID, id uuid.UUID, approved bool, reviewerID uuid.UUID) error {
	query := `
		UPDATE content_items
		SET internal_approved = $3,
			internal_approved_by = CASE WHEN $3 THEN $4::uuid END,
			internal_approved_at = CASE WHEN $3 THEN NOW() END,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = ANY($5)
	`
	open := []string{
		string(models.ContentDraft),
		string(models.ContentInProduction),
		string(models.ContentPendingApproval),
		string(models.ContentAdjustmentRequested),
	}
	result, err := d.Pool.Exec(ctx, query, id, tenantID, approved, reviewerID, open)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return d.missingOrConflict(ctx, tenantID, id)
	}
	return nil
}

// TransitionUpdate describes a conditional status change of one content item.
type TransitionUpdate struct {
	TenantID  uuid.UUID
	ContentID uuid.UUID
	From      models.ContentStatus
	To        models.ContentStatus
	PublishAt *time.Time // replaces publish_at when non-nil
	ClearGate bool       // resets internal_approved
}

// TransitionContent moves an item from u.From to u.To only if it is still in u.From.
// Returns ErrStateConflict when the item has moved on in the meantime.
func (d *DB) TransitionContent(ctx context.Context, u TransitionUpdate) error {
	query := `
		UPDATE content_items
		SET status = $4,
			publish_at = COALESCE($5, publish_at),
			internal_approved = CASE WHEN $6 THEN FALSE ELSE internal_approved END,
			internal_approved_by = CASE WHEN $6 THEN NULL ELSE internal_approved_by END,
			internal_approved_at = CASE WHEN $6 THEN NULL ELSE internal_approved_at END,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = $3
	`
	result, err := d.Pool.Exec(ctx, query, u.ContentID, u.TenantID, u.From, u.To, u.PublishAt, u.ClearGate)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return d.missingOrConflict(ctx, u.TenantID, u.ContentID)
	}
	return nil
}

// ListDueScheduled returns scheduled items across all tenants whose publish date has passed.
func (d *DB) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.ContentItem, error) {
	query := `SELECT ` + contentColumns + contentFrom + `
		WHERE ci.status = $1 AND ci.publish_at <= $2
		ORDER BY ci.publish_at ASC
		LIMIT $3`
	rows, err := d.Pool.Query(ctx, query, models.ContentScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	return scanContents(rows)
}

// missingOrConflict decides why a conditional update on a content item matched no row.
func (d *DB) missingOrConflict(ctx context.Context, tenantID, id uuid.UUID) error {
	var exists bool
	err := d.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_items WHERE id = $1 AND tenant_id = $2)`, id, tenantID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrContentNotFound
	}
	return ErrStateConflict
}
