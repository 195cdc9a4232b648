package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentflow/internal/lifecycle"
	"contentflow/internal/models"
)

// linkColumns is the standard column list for approval link queries, aliased as al.
const linkColumns = `al.id, al.tenant_id, al.content_id, al.client_id, al.token, al.status,
	al.reviewer_name, al.comment, al.issued_by, al.resolved_at, al.expires_at, al.created_at,
	c.name, ci.title`

const linkFrom = ` FROM approval_links al
	JOIN clients c ON c.id = al.client_id
	JOIN content_items ci ON ci.id = al.content_id `

// scanApprovalLink scans a row into an ApprovalLink struct.
func scanApprovalLink(row pgx.Row) (*models.ApprovalLink, error) {
	var link models.ApprovalLink
	err := row.Scan(
		&link.ID,
		&link.TenantID,
		&link.ContentID,
		&link.ClientID,
		&link.Token,
		&link.Status,
		&link.ReviewerName,
		&link.Comment,
		&link.IssuedBy,
		&link.ResolvedAt,
		&link.ExpiresAt,
		&link.CreatedAt,
		&link.ClientName,
		&link.ContentTitle,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApprovalLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	if !link.Status.Valid() {
		return nil, fmt.Errorf("approval link %s: unknown status %q", link.ID, link.Status)
	}
	return &link, nil
}

// IssueApprovalLink records a new pending link and moves the content item to
// pending_approval in one transaction. The content row is locked while the
// internal gate is checked, so the flag cannot be cleared between check and issue.
//
// The caller supplies TenantID, ContentID, Token, ExpiresAt and IssuedBy.
// Returns ErrDuplicateToken if the token collides with an existing one.
func (d *DB) IssueApprovalLink(ctx context.Context, link *models.ApprovalLink) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status models.ContentStatus
	var gate bool
	var clientID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT status, internal_approved, client_id FROM content_items
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, link.ContentID, link.TenantID).Scan(&status, &gate, &clientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrContentNotFound
	}
	if err != nil {
		return err
	}

	trigger, ok := lifecycle.IssuingTrigger(status)
	if !ok {
		trigger = lifecycle.TriggerSubmitForReview
	}
	next, err := lifecycle.Next(status, trigger, lifecycle.Guard{InternalApproved: gate, LinkIssued: true})
	if err != nil {
		if errors.Is(err, lifecycle.ErrGuardFailed) {
			return ErrInternalGateClosed
		}
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO approval_links (tenant_id, content_id, client_id, token, issued_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at
	`, link.TenantID, link.ContentID, clientID, link.Token, link.IssuedBy, link.ExpiresAt,
	).Scan(&link.ID, &link.Status, &link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "approval_links_token_key") {
			return ErrDuplicateToken
		}
		return err
	}
	link.ClientID = clientID

	if _, err := tx.Exec(ctx, `
		UPDATE content_items SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`, link.ContentID, link.TenantID, next); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Resolution is a client's decision on a pending link.
type Resolution struct {
	Token        string
	Decision     models.ApprovalStatus // approved or adjustment_requested
	ReviewerName string                // empty falls back to the client's name
	Comment      string
	Now          time.Time
}

// ResolveApprovalLink applies a client decision atomically.
//
// The link row is updated only while it is still pending, unexpired and the
// latest link of its item, and the content item only while it is still
// pending_approval; both happen in one
// transaction. Of two concurrent resolutions of the same token exactly one can
// match the pending row.
//
// On ErrApprovalLinkExpired, ErrApprovalLinkResolved and ErrStateConflict the
// current link is returned alongside the error so callers can show it.
func (d *DB) ResolveApprovalLink(ctx context.Context, r Resolution) (*models.ApprovalLink, error) {
	trigger, ok := lifecycle.DecisionTrigger(r.Decision)
	if !ok {
		return nil, fmt.Errorf("unsupported decision %q", r.Decision)
	}
	to, err := lifecycle.Next(models.ContentPendingApproval, trigger, lifecycle.Guard{LinkUsable: true, Comment: r.Comment})
	if err != nil {
		return nil, err
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var comment *string
	if r.Decision == models.ApprovalAdjustmentRequested {
		comment = &r.Comment
	}

	var linkID, tenantID, contentID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE approval_links al
		SET status = $2,
			reviewer_name = COALESCE($3, (SELECT name FROM clients WHERE id = al.client_id)),
			comment = $4,
			resolved_at = $5
		WHERE al.token = $1 AND al.status = 'pending' AND al.expires_at >= $5
			AND NOT EXISTS (
				SELECT 1 FROM approval_links newer
				WHERE newer.content_id = al.content_id AND newer.created_at > al.created_at
			)
		RETURNING al.id, al.tenant_id, al.content_id
	`, r.Token, r.Decision, nullIfEmpty(r.ReviewerName), comment, r.Now).Scan(&linkID, &tenantID, &contentID)
	if errors.Is(err, pgx.ErrNoRows) {
		tx.Rollback(ctx)
		return d.classifyUnresolvable(ctx, r.Token, r.Now)
	}
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(ctx, `
		UPDATE content_items SET status = $3, updated_at = $4
		WHERE id = $1 AND tenant_id = $2 AND status = $5
	`, contentID, tenantID, to, r.Now, models.ContentPendingApproval)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		tx.Rollback(ctx)
		link, lerr := d.GetApprovalLinkByToken(ctx, r.Token)
		if lerr != nil {
			return nil, lerr
		}
		return link, ErrStateConflict
	}

	link, err := scanApprovalLink(tx.QueryRow(ctx, `SELECT `+linkColumns+linkFrom+`WHERE al.id = $1`, linkID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return link, nil
}

// classifyUnresolvable explains why a token could not be resolved.
// Checks run in order: unknown token, expiry, existing decision, then a newer link.
func (d *DB) classifyUnresolvable(ctx context.Context, token string, now time.Time) (*models.ApprovalLink, error) {
	link, err := d.GetApprovalLinkByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if link.Expired(now) {
		return link, ErrApprovalLinkExpired
	}
	if link.Status.Resolved() {
		return link, ErrApprovalLinkResolved
	}
	var superseded bool
	if err := d.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM approval_links WHERE content_id = $1 AND created_at > $2)
	`, link.ContentID, link.CreatedAt).Scan(&superseded); err != nil {
		return nil, err
	}
	if superseded {
		return link, ErrApprovalLinkSuperseded
	}
	// Still pending and unexpired: the competing transaction rolled back.
	return link, ErrStateConflict
}

// GetApprovalLinkByToken retrieves a link by its token.
func (d *DB) GetApprovalLinkByToken(ctx context.Context, token string) (*models.ApprovalLink, error) {
	return scanApprovalLink(d.Pool.QueryRow(ctx, `SELECT `+linkColumns+linkFrom+`WHERE al.token = $1`, token))
}

// ListApprovalLinks returns every link ever issued for a content item, oldest first.
func (d *DB) ListApprovalLinks(ctx context.Context, tenantID, contentID uuid.UUID) ([]models.ApprovalLink, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+linkColumns+linkFrom+`
		WHERE al.tenant_id = $1 AND al.content_id = $2
		ORDER BY al.created_at ASC, al.id ASC
	`, tenantID, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.ApprovalLink{}
	for rows.Next() {
		link, err := scanApprovalLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// CountApprovalLinksByStatus returns the number of links per status across all tenants.
// Pending links past their expiry are reported under "expired".
func (d *DB) CountApprovalLinksByStatus(ctx context.Context, now time.Time) (map[string]int64, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT CASE WHEN status = 'pending' AND expires_at < $1 THEN 'expired' ELSE status END AS s, COUNT(*)
		FROM approval_links
		GROUP BY s
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// GetNotificationEmails returns the addresses to tell about a decision on a content item:
// the tenant's notify list plus the item's creator.
func (d *DB) GetNotificationEmails(ctx context.Context, tenantID, contentID uuid.UUID) ([]string, error) {
	var emails []string
	var creator *string
	err := d.Pool.QueryRow(ctx, `
		SELECT t.notify_emails, NULLIF(u.email, '')
		FROM content_items ci
		JOIN tenants t ON t.id = ci.tenant_id
		LEFT JOIN users u ON u.id = ci.created_by
		WHERE ci.id = $1 AND ci.tenant_id = $2
	`, contentID, tenantID).Scan(&emails, &creator)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}

	if creator != nil {
		seen := false
		for _, e := range emails {
			if e == *creator {
				seen = true
				break
			}
		}
		if !seen {
			emails = append(emails, *creator)
		}
	}
	return emails, nil
}
