package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentflow/internal/models"
)

const tenantColumns = `id, name, slug, webhook_url, notify_emails, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.WebhookURL, &t.NotifyEmails, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant creates a new tenant.
func (d *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if t.NotifyEmails == nil {
		t.NotifyEmails = []string{}
	}
	query := `
		INSERT INTO tenants (name, slug, webhook_url, notify_emails)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query, t.Name, t.Slug, t.WebhookURL, t.NotifyEmails).Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt,
	)
}

// UpsertTenant creates a tenant or updates the one with the same slug.
func (d *DB) UpsertTenant(ctx context.Context, t *models.Tenant) error {
	if t.NotifyEmails == nil {
		t.NotifyEmails = []string{}
	}
	query := `
		INSERT INTO tenants (name, slug, webhook_url, notify_emails)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			webhook_url = EXCLUDED.webhook_url,
			notify_emails = EXCLUDED.notify_emails,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query, t.Name, t.Slug, t.WebhookURL, t.NotifyEmails).Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt,
	)
}

// GetTenantByID retrieves a tenant by ID.
func (d *DB) GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return scanTenant(d.Pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

// GetTenantBySlug retrieves a tenant by its slug.
func (d *DB) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return scanTenant(d.Pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
}

// GetOrCreateTenant returns the tenant with slug, creating it named after the slug if missing.
func (d *DB) GetOrCreateTenant(ctx context.Context, slug string) (*models.Tenant, error) {
	t, err := d.GetTenantBySlug(ctx, slug)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO tenants (name, slug) VALUES ($1, $1)
		ON CONFLICT (slug) DO UPDATE SET updated_at = tenants.updated_at
		RETURNING ` + tenantColumns
	return scanTenant(d.Pool.QueryRow(ctx, query, slug))
}

// GetTenantWebhookURL returns the webhook URL configured for a tenant, or "" if none.
func (d *DB) GetTenantWebhookURL(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var url *string
	err := d.Pool.QueryRow(ctx, `SELECT webhook_url FROM tenants WHERE id = $1`, tenantID).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrTenantNotFound
	}
	if err != nil {
		return "", err
	}
	if url == nil {
		return "", nil
	}
	return *url, nil
}
