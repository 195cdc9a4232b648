package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/metrics"
	"contentflow/internal/models"
	"contentflow/internal/token"
	"contentflow/internal/validation"
)

// LinkURL builds the shareable review URL for a token.
func LinkURL(baseURL, tok string) string {
	return strings.TrimRight(baseURL, "/") + "/approve?" + url.Values{"token": {tok}}.Encode()
}

// IssueLink issues a new approval link for a content item and moves it to pending_approval.
//
// Depending on the current state this is a submit for review, a reissue or a resubmit.
// The internal approval flag is checked under the same lock that records the link.
// A token collision is retried with a fresh token up to the configured number of attempts.
func (s *Service) IssueLink(ctx context.Context, tenantID, contentID uuid.UUID, issuedBy *uuid.UUID) (*models.IssuedLink, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		tok, err := s.tokens.Generate()
		if err != nil {
			return nil, fmt.Errorf("generating token: %w", err)
		}

		link := &models.ApprovalLink{
			TenantID:  tenantID,
			ContentID: contentID,
			Token:     tok,
			IssuedBy:  issuedBy,
			ExpiresAt: s.now().Add(s.ttl),
		}
		err = s.store.IssueApprovalLink(ctx, link)
		if errors.Is(err, db.ErrDuplicateToken) {
			slog.Warn("approval token collision, retrying", "content_id", contentID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.RecordLinkIssued()
		slog.Info("approval link issued",
			"content_id", contentID,
			"link_id", link.ID,
			"token", validation.RedactToken(tok),
			"expires_at", link.ExpiresAt,
		)
		return &models.IssuedLink{Link: link, URL: LinkURL(s.baseURL, tok)}, nil
	}
	return nil, fmt.Errorf("issuing approval link after %d attempts: %w", s.maxAttempts, db.ErrDuplicateToken)
}

// Approve resolves a token with an approval.
//
// On AlreadyResolved, Expired and StateConflict the current link is returned
// with the error so the caller can show the existing decision.
func (s *Service) Approve(ctx context.Context, tok, reviewerName string) (*models.ApprovalLink, error) {
	return s.resolve(ctx, tok, models.ApprovalApproved, reviewerName, "")
}

// RequestAdjustment resolves a token with a change request. The comment is
// validated before anything is read or written.
func (s *Service) RequestAdjustment(ctx context.Context, tok, reviewerName, comment string) (*models.ApprovalLink, error) {
	if err := validation.ValidateComment(comment); err != nil {
		metrics.RecordResolution(CodeValidation)
		return nil, err
	}
	return s.resolve(ctx, tok, models.ApprovalAdjustmentRequested, reviewerName, strings.TrimSpace(comment))
}

func (s *Service) resolve(ctx context.Context, tok string, decision models.ApprovalStatus, reviewerName, comment string) (*models.ApprovalLink, error) {
	name, err := validation.NormalizeReviewerName(reviewerName)
	if err != nil {
		metrics.RecordResolution(CodeValidation)
		return nil, err
	}
	if !token.Valid(tok) {
		metrics.RecordResolution(CodeNotFound)
		return nil, db.ErrApprovalLinkNotFound
	}

	link, err := s.store.ResolveApprovalLink(ctx, db.Resolution{
		Token:        tok,
		Decision:     decision,
		ReviewerName: name,
		Comment:      comment,
		Now:          s.now(),
	})
	if err != nil {
		code := Code(err)
		metrics.RecordResolution(code)
		if code == CodeInternal {
			slog.Error("failed to resolve approval link", "token", validation.RedactToken(tok), "error", err)
		} else {
			slog.Info("approval link not resolved", "token", validation.RedactToken(tok), "outcome", code)
		}
		return link, err
	}

	metrics.RecordResolution(string(link.Status))
	slog.Info("approval link resolved",
		"token", validation.RedactToken(tok),
		"content_id", link.ContentID,
		"status", link.Status,
	)

	// The decision is committed; notification is the emitter's concern from here on.
	s.emitter.Emit(lifecycle.EventForDecision(link, nil))
	return link, nil
}

// View returns what a client sees when opening a link.
//
// Resolved links are shown with their decision regardless of expiry.
// A pending link past its expiry is returned together with ErrApprovalLinkExpired,
// and one replaced by a newer link together with ErrApprovalLinkSuperseded.
func (s *Service) View(ctx context.Context, tok string) (*models.ApprovalView, error) {
	if !token.Valid(tok) {
		return nil, db.ErrApprovalLinkNotFound
	}
	link, err := s.store.GetApprovalLinkByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	content, err := s.store.GetContentItem(ctx, link.TenantID, link.ContentID)
	if err != nil {
		return nil, err
	}

	view := &models.ApprovalView{Link: link, Content: content}
	if link.Status != models.ApprovalPending {
		return view, nil
	}
	if link.Expired(s.now()) {
		return view, db.ErrApprovalLinkExpired
	}
	links, err := s.store.ListApprovalLinks(ctx, link.TenantID, link.ContentID)
	if err != nil {
		return nil, err
	}
	if n := len(links); n > 0 && links[n-1].ID != link.ID {
		return view, db.ErrApprovalLinkSuperseded
	}
	return view, nil
}

// History returns every link issued for a content item, oldest first.
// With commentsOnly only adjustment requests are returned; storage keeps every row.
func (s *Service) History(ctx context.Context, tenantID, contentID uuid.UUID, commentsOnly bool) ([]models.ApprovalLink, error) {
	if _, err := s.store.GetContentItem(ctx, tenantID, contentID); err != nil {
		return nil, err
	}
	links, err := s.store.ListApprovalLinks(ctx, tenantID, contentID)
	if err != nil {
		return nil, err
	}
	if !commentsOnly {
		return links, nil
	}

	filtered := []models.ApprovalLink{}
	for _, l := range links {
		if l.Status == models.ApprovalAdjustmentRequested {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}
