package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentflow/internal/models"
)

const userColumns = `id, sub, email, name, picture, role, tenant_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Sub,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.Role,
		&user.TenantID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates or updates a user based on their OIDC subject.
// Role and tenant are only set on insert; later logins keep what an admin assigned.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (sub, email, name, picture, role, tenant_id)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'member'), $6)
		ON CONFLICT (sub) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture = EXCLUDED.picture,
			updated_at = NOW()
		RETURNING id, role, tenant_id, created_at, updated_at
	`

	return d.Pool.QueryRow(ctx, query,
		user.Sub,
		user.Email,
		user.Name,
		user.Picture,
		nullIfEmpty(user.Role),
		user.TenantID,
	).Scan(&user.ID, &user.Role, &user.TenantID, &user.CreatedAt, &user.UpdatedAt)
}

// GetUserBySub retrieves a user by their OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE sub = $1`, sub))
}

// GetUserByID retrieves a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ListUsers returns the users of a tenant ordered by email.
func (d *DB) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY email`, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateUserTenant sets the tenant a user belongs to.
func (d *DB) UpdateUserTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE users SET tenant_id = $1, updated_at = NOW() WHERE id = $2
	`, tenantID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserRole changes a user's role within their tenant.
func (d *DB) UpdateUserRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 AND tenant_id = $3
	`, role, userID, tenantID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
