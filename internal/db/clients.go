package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentflow/internal/models"
)

const clientColumns = `id, tenant_id, name, email, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient adds a client to a tenant. Names are unique within a tenant.
func (d *DB) CreateClient(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (tenant_id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query, c.TenantID, c.Name, c.Email).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err, "clients_tenant_id_name_key") {
		return ErrClientExists
	}
	return err
}

// UpsertClient creates a client or updates the one with the same name in the tenant.
func (d *DB) UpsertClient(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (tenant_id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, name) DO UPDATE SET
			email = EXCLUDED.email,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query, c.TenantID, c.Name, c.Email).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetClient retrieves a client within a tenant.
func (d *DB) GetClient(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	return scanClient(d.Pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	))
}

// ListClients returns all clients of a tenant ordered by name.
func (d *DB) ListClients(ctx context.Context, tenantID uuid.UUID) ([]models.Client, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE tenant_id = $1 ORDER BY name`, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
