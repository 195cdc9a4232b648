package testutil

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/models"
)

// MemStore is an in-memory store with the same contract as the Postgres store:
// tenant-scoped reads, conditional transitions, gate check and issuance under
// one lock, and at most one resolution per link.
type MemStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*models.Tenant
	clients map[uuid.UUID]*models.Client
	users   map[uuid.UUID]*models.User
	content map[uuid.UUID]*models.ContentItem
	links   []*models.ApprovalLink
	byToken map[string]*models.ApprovalLink

	// Clock stamps created_at and updated_at. Defaults to time.Now.
	Clock func() time.Time
	// PingErr is returned by Ping.
	PingErr error
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		tenants: make(map[uuid.UUID]*models.Tenant),
		clients: make(map[uuid.UUID]*models.Client),
		users:   make(map[uuid.UUID]*models.User),
		content: make(map[uuid.UUID]*models.ContentItem),
		byToken: make(map[string]*models.ApprovalLink),
		Clock:   time.Now,
	}
}

// AddTenant stores a tenant.
func (m *MemStore) AddTenant(name, slug string) *models.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Clock()
	t := &models.Tenant{ID: uuid.New(), Name: name, Slug: slug, NotifyEmails: []string{}, CreatedAt: now, UpdatedAt: now}
	m.tenants[t.ID] = t
	cp := *t
	return &cp
}

// SetTenantNotifications sets a tenant's webhook URL and notify list.
func (m *MemStore) SetTenantNotifications(tenantID uuid.UUID, webhookURL string, emails []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tenants[tenantID]; ok {
		if webhookURL != "" {
			t.WebhookURL = &webhookURL
		}
		t.NotifyEmails = slices.Clone(emails)
	}
}

// AddClient stores a client of tenantID.
func (m *MemStore) AddClient(tenantID uuid.UUID, name, email string) *models.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Clock()
	c := &models.Client{ID: uuid.New(), TenantID: tenantID, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	m.clients[c.ID] = c
	cp := *c
	return &cp
}

// AddUser stores a user of tenantID with role.
func (m *MemStore) AddUser(tenantID uuid.UUID, email, role string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Clock()
	tid := tenantID
	u := &models.User{ID: uuid.New(), Sub: "sub-" + email, Email: email, Name: email, Role: role, TenantID: &tid, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	cp := *u
	return &cp
}

// GetUserBySub returns a copy of the user with the given OIDC subject.
func (m *MemStore) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Sub == sub {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrUserNotFound
}

// Ping reports PingErr.
func (m *MemStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// ListClients returns a tenant's clients ordered by name.
func (m *MemStore) ListClients(ctx context.Context, tenantID uuid.UUID) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Client{}
	for _, c := range m.clients {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetClient returns a copy of a client within a tenant.
func (m *MemStore) GetClient(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, db.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

// CreateClient stores a new client; names are unique within a tenant.
func (m *MemStore) CreateClient(ctx context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.clients {
		if existing.TenantID == c.TenantID && existing.Name == c.Name {
			return db.ErrClientExists
		}
	}
	now := m.Clock()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := *c
	m.clients[c.ID] = &stored
	return nil
}

// GetTenantByID returns a copy of a tenant.
func (m *MemStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, db.ErrTenantNotFound
	}
	cp := *t
	cp.NotifyEmails = slices.Clone(t.NotifyEmails)
	return &cp, nil
}

// GetUserByID returns a copy of a user.
func (m *MemStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// ListUsers returns a tenant's users ordered by email.
func (m *MemStore) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if u.BelongsTo(tenantID) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// UpdateUserRole changes the role of a user within tenantID.
func (m *MemStore) UpdateUserRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || !u.BelongsTo(tenantID) {
		return db.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = m.Clock()
	return nil
}

// GetTenantWebhookURL returns a tenant's webhook URL or "".
func (m *MemStore) GetTenantWebhookURL(ctx context.Context, tenantID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[tenantID]
	if !ok {
		return "", db.ErrTenantNotFound
	}
	if t.WebhookURL == nil {
		return "", nil
	}
	return *t.WebhookURL, nil
}

// GetNotificationEmails returns the tenant notify list plus the item's creator.
func (m *MemStore) GetNotificationEmails(ctx context.Context, tenantID, contentID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.content[contentID]
	if !ok || item.TenantID != tenantID {
		return nil, db.ErrContentNotFound
	}
	emails := slices.Clone(m.tenants[tenantID].NotifyEmails)
	if item.CreatedBy != nil {
		if u, ok := m.users[*item.CreatedBy]; ok && u.Email != "" && !slices.Contains(emails, u.Email) {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}

func (m *MemStore) copyContent(item *models.ContentItem) *models.ContentItem {
	cp := *item
	cp.MediaRefs = slices.Clone(item.MediaRefs)
	if c, ok := m.clients[item.ClientID]; ok {
		cp.ClientName = c.Name
	}
	return &cp
}

func (m *MemStore) copyLink(link *models.ApprovalLink) *models.ApprovalLink {
	cp := *link
	if c, ok := m.clients[link.ClientID]; ok {
		cp.ClientName = c.Name
	}
	if item, ok := m.content[link.ContentID]; ok {
		cp.ContentTitle = item.Title
	}
	return &cp
}

// lookup returns the stored item for tenantID or ErrContentNotFound. Caller holds mu.
func (m *MemStore) lookup(tenantID, id uuid.UUID) (*models.ContentItem, error) {
	item, ok := m.content[id]
	if !ok || item.TenantID != tenantID {
		return nil, db.ErrContentNotFound
	}
	return item, nil
}

// CreateContentItem stores a new draft item.
func (m *MemStore) CreateContentItem(ctx context.Context, item *models.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[item.ClientID]
	if !ok || c.TenantID != item.TenantID {
		return db.ErrClientNotFound
	}
	if item.MediaRefs == nil {
		item.MediaRefs = []string{}
	}
	now := m.Clock()
	item.ID = uuid.New()
	item.Status = models.ContentDraft
	item.InternalApproved = false
	item.CreatedAt = now
	item.UpdatedAt = now
	stored := *item
	stored.MediaRefs = slices.Clone(item.MediaRefs)
	m.content[item.ID] = &stored
	return nil
}

// GetContentItem returns a copy of an item within a tenant.
func (m *MemStore) GetContentItem(ctx context.Context, tenantID, id uuid.UUID) (*models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, err := m.lookup(tenantID, id)
	if err != nil {
		return nil, err
	}
	return m.copyContent(item), nil
}

// ListContentByClient returns a client's items, newest first.
func (m *MemStore) ListContentByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ContentItem{}
	for _, item := range m.content {
		if item.TenantID == tenantID && item.ClientID == clientID {
			out = append(out, *m.copyContent(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateContentFields replaces descriptive fields of an editable item and clears the gate.
func (m *MemStore) UpdateContentFields(ctx context.Context, item *models.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := m.lookup(item.TenantID, item.ID)
	if err != nil {
		return err
	}
	if !stored.Status.Editable() {
		return db.ErrStateConflict
	}
	stored.Title = item.Title
	stored.Body = item.Body
	stored.MediaRefs = slices.Clone(item.MediaRefs)
	if stored.MediaRefs == nil {
		stored.MediaRefs = []string{}
	}
	stored.PublishAt = item.PublishAt
	stored.InternalApproved = false
	stored.InternalApprovedBy = nil
	stored.InternalApprovedAt = nil
	stored.UpdatedAt = m.Clock()

	item.Status = stored.Status
	item.InternalApproved = false
	item.InternalApprovedBy = nil
	item.InternalApprovedAt = nil
	item.UpdatedAt = stored.UpdatedAt
	return nil
}

// SetInternalApproval sets or clears the gate on an undecided item.
func (m *MemStore) SetInternalApproval(ctx context.Context, tenantID, id uuid.UUID, approved bool, reviewerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, err := m.lookup(tenantID, id)
	if err != nil {
		return err
	}
	switch item.Status {
	case models.ContentDraft, models.ContentInProduction, models.ContentPendingApproval, models.ContentAdjustmentRequested:
	default:
		return db.ErrStateConflict
	}
	now := m.Clock()
	item.InternalApproved = approved
	if approved {
		rid := reviewerID
		item.InternalApprovedBy = &rid
		item.InternalApprovedAt = &now
	} else {
		item.InternalApprovedBy = nil
		item.InternalApprovedAt = nil
	}
	item.UpdatedAt = now
	return nil
}

// TransitionContent applies u only if the item is still in u.From.
func (m *MemStore) TransitionContent(ctx context.Context, u db.TransitionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, err := m.lookup(u.TenantID, u.ContentID)
	if err != nil {
		return err
	}
	if item.Status != u.From {
		return db.ErrStateConflict
	}
	item.Status = u.To
	if u.PublishAt != nil {
		at := *u.PublishAt
		item.PublishAt = &at
	}
	if u.ClearGate {
		item.InternalApproved = false
		item.InternalApprovedBy = nil
		item.InternalApprovedAt = nil
	}
	item.UpdatedAt = m.Clock()
	return nil
}

// ListDueScheduled returns scheduled items with publish_at <= now, earliest first.
func (m *MemStore) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ContentItem{}
	for _, item := range m.content {
		if item.Status == models.ContentScheduled && item.PublishAt != nil && !item.PublishAt.After(now) {
			out = append(out, *m.copyContent(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishAt.Before(*out[j].PublishAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// IssueApprovalLink checks the gate and records a pending link under one lock.
func (m *MemStore) IssueApprovalLink(ctx context.Context, link *models.ApprovalLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, err := m.lookup(link.TenantID, link.ContentID)
	if err != nil {
		return err
	}

	trigger, ok := lifecycle.IssuingTrigger(item.Status)
	if !ok {
		trigger = lifecycle.TriggerSubmitForReview
	}
	next, err := lifecycle.Next(item.Status, trigger, lifecycle.Guard{InternalApproved: item.InternalApproved, LinkIssued: true})
	if err != nil {
		if errors.Is(err, lifecycle.ErrGuardFailed) {
			return db.ErrInternalGateClosed
		}
		return err
	}
	if _, taken := m.byToken[link.Token]; taken {
		return db.ErrDuplicateToken
	}

	link.ID = uuid.New()
	link.ClientID = item.ClientID
	link.Status = models.ApprovalPending
	link.ReviewerName = nil
	link.Comment = nil
	link.ResolvedAt = nil
	link.CreatedAt = m.Clock()

	stored := *link
	m.links = append(m.links, &stored)
	m.byToken[link.Token] = &stored

	item.Status = next
	item.UpdatedAt = link.CreatedAt
	return nil
}

// ResolveApprovalLink resolves the latest pending, unexpired link of an item
// that is still pending_approval.
func (m *MemStore) ResolveApprovalLink(ctx context.Context, r db.Resolution) (*models.ApprovalLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.byToken[r.Token]
	if !ok {
		return nil, db.ErrApprovalLinkNotFound
	}
	if link.Expired(r.Now) {
		return m.copyLink(link), db.ErrApprovalLinkExpired
	}
	if link.Status.Resolved() {
		return m.copyLink(link), db.ErrApprovalLinkResolved
	}
	if m.latestLink(link.ContentID) != link {
		return m.copyLink(link), db.ErrApprovalLinkSuperseded
	}

	item := m.content[link.ContentID]
	trigger, _ := lifecycle.DecisionTrigger(r.Decision)
	to, err := lifecycle.Next(item.Status, trigger, lifecycle.Guard{LinkUsable: true, Comment: r.Comment})
	if err != nil {
		if item.Status != models.ContentPendingApproval {
			return m.copyLink(link), db.ErrStateConflict
		}
		return nil, err
	}

	name := r.ReviewerName
	if name == "" {
		name = m.clients[link.ClientID].Name
	}
	resolvedAt := r.Now
	link.Status = r.Decision
	link.ReviewerName = &name
	link.ResolvedAt = &resolvedAt
	if r.Decision == models.ApprovalAdjustmentRequested {
		comment := r.Comment
		link.Comment = &comment
	}

	item.Status = to
	item.UpdatedAt = r.Now
	return m.copyLink(link), nil
}

func (m *MemStore) latestLink(contentID uuid.UUID) *models.ApprovalLink {
	for i := len(m.links) - 1; i >= 0; i-- {
		if m.links[i].ContentID == contentID {
			return m.links[i]
		}
	}
	return nil
}

// GetApprovalLinkByToken returns a copy of the link with token.
func (m *MemStore) GetApprovalLinkByToken(ctx context.Context, token string) (*models.ApprovalLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.byToken[token]
	if !ok {
		return nil, db.ErrApprovalLinkNotFound
	}
	return m.copyLink(link), nil
}

// ListApprovalLinks returns an item's links in issuance order.
func (m *MemStore) ListApprovalLinks(ctx context.Context, tenantID, contentID uuid.UUID) ([]models.ApprovalLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ApprovalLink{}
	for _, link := range m.links {
		if link.TenantID == tenantID && link.ContentID == contentID {
			out = append(out, *m.copyLink(link))
		}
	}
	return out, nil
}

// CountApprovalLinksByStatus counts links per status, reporting expired pending links as "expired".
func (m *MemStore) CountApprovalLinksByStatus(ctx context.Context, now time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, link := range m.links {
		status := string(link.Status)
		if link.Status == models.ApprovalPending && link.Expired(now) {
			status = "expired"
		}
		counts[status]++
	}
	return counts, nil
}
