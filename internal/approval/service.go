// Package approval coordinates content items and their client approval links.
//
// The service is the only place that issues links, resolves tokens and fires
// internal transitions. Persistence guarantees (conditional updates, the gate
// lock during issuance) live in the Store; the service decides what to ask for
// and announces committed decisions through a lifecycle.Emitter.
package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/models"
	"contentflow/internal/token"
)

// Store is the persistence the service depends on. *db.DB implements it.
type Store interface {
	GetClient(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)

	CreateContentItem(ctx context.Context, item *models.ContentItem) error
	GetContentItem(ctx context.Context, tenantID, id uuid.UUID) (*models.ContentItem, error)
	ListContentByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]models.ContentItem, error)
	UpdateContentFields(ctx context.Context, item *models.ContentItem) error
	SetInternalApproval(ctx context.Context, tenantID, id uuid.UUID, approved bool, reviewerID uuid.UUID) error
	TransitionContent(ctx context.Context, u db.TransitionUpdate) error
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.ContentItem, error)

	IssueApprovalLink(ctx context.Context, link *models.ApprovalLink) error
	ResolveApprovalLink(ctx context.Context, r db.Resolution) (*models.ApprovalLink, error)
	GetApprovalLinkByToken(ctx context.Context, token string) (*models.ApprovalLink, error)
	ListApprovalLinks(ctx context.Context, tenantID, contentID uuid.UUID) ([]models.ApprovalLink, error)
}

// Options configures a Service.
type Options struct {
	BaseURL          string        // prefix of shareable links, e.g. https://review.example.com
	LinkTTL          time.Duration // validity window of a new link
	TokenMaxAttempts int           // token collisions tolerated per issuance
	Now              func() time.Time
}

// DefaultLinkTTL is the validity window used when Options.LinkTTL is zero.
const DefaultLinkTTL = 30 * 24 * time.Hour

// Service implements the approval workflow.
type Service struct {
	store       Store
	tokens      *token.Generator
	emitter     lifecycle.Emitter
	baseURL     string
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

type nopEmitter struct{}

func (nopEmitter) Emit(lifecycle.Event) {}

// NewService creates a Service. A nil emitter discards events.
func NewService(store Store, tokens *token.Generator, emitter lifecycle.Emitter, opts Options) *Service {
	if tokens == nil {
		tokens = token.New()
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = DefaultLinkTTL
	}
	if opts.TokenMaxAttempts <= 0 {
		opts.TokenMaxAttempts = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:       store,
		tokens:      tokens,
		emitter:     emitter,
		baseURL:     opts.BaseURL,
		ttl:         opts.LinkTTL,
		maxAttempts: opts.TokenMaxAttempts,
		now:         opts.Now,
	}
}
