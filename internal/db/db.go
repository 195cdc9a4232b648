package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentflow/internal/config"
	"contentflow/internal/models"
	"contentflow/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedFromConfig creates the tenants and clients declared in the YAML config.
// Existing rows are updated in place, so seeding is safe to repeat.
func (d *DB) SeedFromConfig(ctx context.Context, yc *config.YAMLConfig) error {
	if yc == nil {
		return nil
	}

	for _, tc := range yc.Tenants {
		tenant := &models.Tenant{
			Slug:         tc.Slug,
			Name:         tc.Name,
			NotifyEmails: tc.NotifyEmails,
		}
		if tc.WebhookURL != "" {
			url := tc.WebhookURL
			tenant.WebhookURL = &url
		}
		if err := d.UpsertTenant(ctx, tenant); err != nil {
			return fmt.Errorf("failed to seed tenant %s: %w", tc.Slug, err)
		}

		for _, cc := range tc.Clients {
			client := &models.Client{TenantID: tenant.ID, Name: cc.Name, Email: cc.Email}
			if err := d.UpsertClient(ctx, client); err != nil {
				return fmt.Errorf("failed to seed client %s/%s: %w", tc.Slug, cc.Name, err)
			}
		}
		slog.Info("seeded tenant", "slug", tc.Slug, "clients", len(tc.Clients))
	}

	return nil
}

// isUniqueViolation reports whether err is a unique violation, optionally on a named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
