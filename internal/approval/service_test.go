package approval

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/models"
	"contentflow/internal/testutil"
	"contentflow/internal/token"
	"contentflow/internal/validation"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []lifecycle.Event
}

func (r *recordingEmitter) Emit(ev lifecycle.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) Events() []lifecycle.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]lifecycle.Event(nil), r.events...)
}

type testEnv struct {
	ctx      context.Context
	store    *testutil.MemStore
	svc      *Service
	clock    *fakeClock
	events   *recordingEmitter
	tenant   *models.Tenant
	client   *models.Client
	writer   *models.User
	reviewer *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := testutil.NewMemStore()
	store.Clock = clock.Now

	tenant := store.AddTenant("Northwind", "northwind")
	env := &testEnv{
		ctx:      context.Background(),
		store:    store,
		clock:    clock,
		events:   &recordingEmitter{},
		tenant:   tenant,
		client:   store.AddClient(tenant.ID, "Acme Bakery", "owner@acme.example"),
		writer:   store.AddUser(tenant.ID, "writer@northwind.example", models.RoleMember),
		reviewer: store.AddUser(tenant.ID, "lead@northwind.example", models.RoleReviewer),
	}
	env.svc = NewService(store, token.New(), env.events, Options{
		BaseURL: "https://review.example.com/",
		LinkTTL: 30 * 24 * time.Hour,
		Now:     clock.Now,
	})
	return env
}

// draft creates a new draft item.
func (e *testEnv) draft(t *testing.T) *models.ContentItem {
	t.Helper()
	item := &models.ContentItem{
		TenantID:  e.tenant.ID,
		ClientID:  e.client.ID,
		Title:     "Spring launch",
		Body:      "We are open!",
		CreatedBy: &e.writer.ID,
	}
	require.NoError(t, e.svc.CreateContent(e.ctx, item))
	return item
}

// ready creates an item in in_production with the internal gate open.
func (e *testEnv) ready(t *testing.T) *models.ContentItem {
	t.Helper()
	item := e.draft(t)
	_, err := e.svc.Transition(e.ctx, e.tenant.ID, item.ID, lifecycle.TriggerSubmit, nil)
	require.NoError(t, err)
	require.NoError(t, e.svc.SetInternalApproval(e.ctx, e.tenant.ID, item.ID, true, e.reviewer))
	return item
}

func (e *testEnv) status(t *testing.T, id uuid.UUID) models.ContentStatus {
	t.Helper()
	item, err := e.svc.GetContent(e.ctx, e.tenant.ID, id)
	require.NoError(t, err)
	return item.Status
}

func tokenOf(t *testing.T, issued *models.IssuedLink) string {
	t.Helper()
	require.NotNil(t, issued)
	return issued.Link.Token
}

func TestIssueLink_FreshLinkIsPending(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)

	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, &env.writer.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalPending, issued.Link.Status)
	assert.Nil(t, issued.Link.ResolvedAt)
	assert.Nil(t, issued.Link.ReviewerName)
	assert.True(t, token.Valid(issued.Link.Token))
	assert.Equal(t, env.clock.Now().Add(30*24*time.Hour), issued.Link.ExpiresAt)
	assert.Equal(t, "https://review.example.com/approve?token="+issued.Link.Token, issued.URL)
	assert.Equal(t, models.ContentPendingApproval, env.status(t, item.ID))
}

func TestIssueLink_GateClosed(t *testing.T) {
	env := newTestEnv(t)
	item := env.draft(t)
	_, err := env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerSubmit, nil)
	require.NoError(t, err)

	_, err = env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.ErrorIs(t, err, db.ErrInternalGateClosed)
	assert.Equal(t, CodeInternalApprovalRequired, Code(err))
	assert.Equal(t, models.ContentInProduction, env.status(t, item.ID))

	history, err := env.svc.History(env.ctx, env.tenant.ID, item.ID, false)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestIssueLink_FromDraftIsIllegal(t *testing.T) {
	env := newTestEnv(t)
	item := env.draft(t)
	require.NoError(t, env.svc.SetInternalApproval(env.ctx, env.tenant.ID, item.ID, true, env.reviewer))

	_, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestIssueLink_RetriesTokenCollision(t *testing.T) {
	env := newTestEnv(t)
	first := env.ready(t)
	second := env.ready(t)

	zeros := make([]byte, token.Length*2)
	ones := bytes.Repeat([]byte{1}, token.Length*2)

	taken := NewService(env.store, token.NewWithSource(bytes.NewReader(zeros)), nil, Options{Now: env.clock.Now})
	issued, err := taken.IssueLink(env.ctx, env.tenant.ID, first.ID, nil)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("A", token.Length), issued.Link.Token)

	src := bytes.NewReader(append(append([]byte{}, zeros...), ones...))
	svc := NewService(env.store, token.NewWithSource(src), nil, Options{Now: env.clock.Now})
	issued, err = svc.IssueLink(env.ctx, env.tenant.ID, second.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("B", token.Length), issued.Link.Token)
}

func TestIssueLink_GivesUpAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	first := env.ready(t)
	second := env.ready(t)

	zeros := make([]byte, token.Length*2)
	_, err := NewService(env.store, token.NewWithSource(bytes.NewReader(zeros)), nil, Options{}).
		IssueLink(env.ctx, env.tenant.ID, first.ID, nil)
	require.NoError(t, err)

	src := bytes.NewReader(bytes.Repeat([]byte{0}, token.Length*2*3))
	svc := NewService(env.store, token.NewWithSource(src), nil, Options{TokenMaxAttempts: 3})
	_, err = svc.IssueLink(env.ctx, env.tenant.ID, second.ID, nil)
	require.ErrorIs(t, err, db.ErrDuplicateToken)
	assert.Equal(t, models.ContentInProduction, env.status(t, second.ID))
}

func TestApprove_ThenRevisitShowsDecision(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)

	// Item starts in pending_approval with the gate open.
	_, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.ContentPendingApproval, env.status(t, item.ID))

	l1, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	link, err := env.svc.Approve(env.ctx, tokenOf(t, l1), "  Dana   Scully ")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, link.Status)
	require.NotNil(t, link.ReviewerName)
	assert.Equal(t, "Dana Scully", *link.ReviewerName)
	require.NotNil(t, link.ResolvedAt)
	assert.Equal(t, env.clock.Now(), *link.ResolvedAt)
	assert.Nil(t, link.Comment)
	assert.Equal(t, models.ContentApproved, env.status(t, item.ID))

	env.clock.Advance(time.Hour)
	again, err := env.svc.Approve(env.ctx, l1.Link.Token, "Someone Else")
	require.ErrorIs(t, err, db.ErrApprovalLinkResolved)
	assert.Equal(t, CodeAlreadyResolved, Code(err))
	require.NotNil(t, again)
	assert.Equal(t, models.ApprovalApproved, again.Status)
	assert.Equal(t, "Dana Scully", *again.ReviewerName)
	assert.Equal(t, *link.ResolvedAt, *again.ResolvedAt)

	_, err = env.svc.RequestAdjustment(env.ctx, l1.Link.Token, "", "too late")
	require.ErrorIs(t, err, db.ErrApprovalLinkResolved)
	assert.Equal(t, models.ContentApproved, env.status(t, item.ID))

	view, err := env.svc.View(env.ctx, l1.Link.Token)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, view.Link.Status)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, lifecycle.EventApproved, events[0].Type)
	assert.Equal(t, item.ID, events[0].ContentID)
	assert.Equal(t, "Acme Bakery", events[0].ClientName)
}

func TestApprove_ReviewerNameFallsBackToClient(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	link, err := env.svc.Approve(env.ctx, issued.Link.Token, "")
	require.NoError(t, err)
	require.NotNil(t, link.ReviewerName)
	assert.Equal(t, "Acme Bakery", *link.ReviewerName)
}

func TestReissue_OlderLinkCannotDecide(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)

	l1, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)
	l2, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	stale, err := env.svc.Approve(env.ctx, l1.Link.Token, "Dana")
	require.ErrorIs(t, err, db.ErrApprovalLinkSuperseded)
	assert.Equal(t, CodeStateConflict, Code(err))
	require.NotNil(t, stale)
	assert.Equal(t, models.ApprovalPending, stale.Status)
	assert.Equal(t, models.ContentPendingApproval, env.status(t, item.ID))

	_, err = env.svc.RequestAdjustment(env.ctx, l1.Link.Token, "Dana", "fix headline")
	require.ErrorIs(t, err, db.ErrApprovalLinkSuperseded)

	view, err := env.svc.View(env.ctx, l1.Link.Token)
	require.ErrorIs(t, err, db.ErrApprovalLinkSuperseded)
	require.NotNil(t, view)
	assert.Equal(t, l1.Link.ID, view.Link.ID)

	_, err = env.svc.View(env.ctx, l2.Link.Token)
	require.NoError(t, err)

	link, err := env.svc.Approve(env.ctx, l2.Link.Token, "Dana")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, link.Status)
	assert.Equal(t, models.ContentApproved, env.status(t, item.ID))
	assert.Len(t, env.events.Events(), 1)
}

func TestExpiredLinkThenNewLinkAdjustment(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)

	l1, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	env.clock.Advance(31 * 24 * time.Hour)

	stale, err := env.svc.Approve(env.ctx, l1.Link.Token, "Dana")
	require.ErrorIs(t, err, db.ErrApprovalLinkExpired)
	assert.Equal(t, CodeExpired, Code(err))
	require.NotNil(t, stale)
	assert.Equal(t, models.ApprovalPending, stale.Status)
	assert.Equal(t, models.ContentPendingApproval, env.status(t, item.ID))

	_, err = env.svc.View(env.ctx, l1.Link.Token)
	assert.ErrorIs(t, err, db.ErrApprovalLinkExpired)

	l2, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	link, err := env.svc.RequestAdjustment(env.ctx, l2.Link.Token, "Dana", "fix headline")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalAdjustmentRequested, link.Status)
	require.NotNil(t, link.Comment)
	assert.Equal(t, "fix headline", *link.Comment)
	assert.Equal(t, models.ContentAdjustmentRequested, env.status(t, item.ID))

	history, err := env.svc.History(env.ctx, env.tenant.ID, item.ID, false)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, l1.Link.ID, history[0].ID)
	assert.Equal(t, models.ApprovalPending, history[0].Status)
	assert.Nil(t, history[0].ResolvedAt)
	assert.Nil(t, history[0].Comment)
	assert.Equal(t, l2.Link.ID, history[1].ID)

	comments, err := env.svc.History(env.ctx, env.tenant.ID, item.ID, true)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, l2.Link.ID, comments[0].ID)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, lifecycle.EventAdjustmentRequested, events[0].Type)
	require.NotNil(t, events[0].Comment)
	assert.Equal(t, "fix headline", *events[0].Comment)
}

func TestRequestAdjustment_EmptyCommentRejectedFirst(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	for _, comment := range []string{"", "   ", "\n\t"} {
		_, err := env.svc.RequestAdjustment(env.ctx, issued.Link.Token, "Dana", comment)
		require.ErrorIs(t, err, validation.ErrInvalid)
		assert.Equal(t, CodeValidation, Code(err))
	}

	link, err := env.store.GetApprovalLinkByToken(env.ctx, issued.Link.Token)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, link.Status)
	assert.Equal(t, models.ContentPendingApproval, env.status(t, item.ID))
	assert.Empty(t, env.events.Events())
}

func TestResolve_UnknownAndMalformedTokens(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Approve(env.ctx, strings.Repeat("Z", token.Length), "")
	assert.ErrorIs(t, err, db.ErrApprovalLinkNotFound)

	_, err = env.svc.Approve(env.ctx, "../../etc/passwd", "")
	assert.ErrorIs(t, err, db.ErrApprovalLinkNotFound)

	_, err = env.svc.View(env.ctx, "short")
	assert.ErrorIs(t, err, db.ErrApprovalLinkNotFound)
	assert.Equal(t, CodeNotFound, Code(err))
}

func TestResolve_StateConflictAfterCancel(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	_, err = env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerCancel, nil)
	require.NoError(t, err)

	link, err := env.svc.Approve(env.ctx, issued.Link.Token, "Dana")
	require.ErrorIs(t, err, db.ErrStateConflict)
	assert.Equal(t, CodeStateConflict, Code(err))
	require.NotNil(t, link)
	assert.Equal(t, models.ApprovalPending, link.Status)
	assert.Equal(t, models.ContentCanceled, env.status(t, item.ID))
	assert.Empty(t, env.events.Events())
}

func TestResolve_ConcurrentSameToken(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = env.svc.Approve(env.ctx, issued.Link.Token, "Dana")
			} else {
				_, errs[i] = env.svc.RequestAdjustment(env.ctx, issued.Link.Token, "Dana", "fix headline")
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		code := Code(err)
		assert.True(t, code == CodeAlreadyResolved || code == CodeStateConflict, "unexpected error %v", err)
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, env.events.Events(), 1)

	link, err := env.store.GetApprovalLinkByToken(env.ctx, issued.Link.Token)
	require.NoError(t, err)
	switch link.Status {
	case models.ApprovalApproved:
		assert.Equal(t, models.ContentApproved, env.status(t, item.ID))
	case models.ApprovalAdjustmentRequested:
		assert.Equal(t, models.ContentAdjustmentRequested, env.status(t, item.ID))
	default:
		t.Fatalf("link left in status %q", link.Status)
	}
}

func TestResubmitAfterAdjustment(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	l1, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)
	_, err = env.svc.RequestAdjustment(env.ctx, l1.Link.Token, "", "swap the photo")
	require.NoError(t, err)

	// Editing clears the gate; resubmitting needs a fresh internal approval.
	item.Title = "Spring launch v2"
	require.NoError(t, env.svc.UpdateContent(env.ctx, item))
	assert.False(t, item.InternalApproved)

	_, err = env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.ErrorIs(t, err, db.ErrInternalGateClosed)

	require.NoError(t, env.svc.SetInternalApproval(env.ctx, env.tenant.ID, item.ID, true, env.reviewer))
	l2, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, l1.Link.Token, l2.Link.Token)
	assert.Equal(t, models.ContentPendingApproval, env.status(t, item.ID))

	old, err := env.store.GetApprovalLinkByToken(env.ctx, l1.Link.Token)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalAdjustmentRequested, old.Status)
	assert.Equal(t, "swap the photo", *old.Comment)
}

func TestTransitions(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	// Decisions only come through a token.
	_, err = env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerApprove, nil)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)

	_, err = env.svc.Approve(env.ctx, issued.Link.Token, "Dana")
	require.NoError(t, err)

	_, err = env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerSchedule, nil)
	require.ErrorIs(t, err, lifecycle.ErrGuardFailed)

	publishAt := env.clock.Now().Add(48 * time.Hour)
	scheduled, err := env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerSchedule, &publishAt)
	require.NoError(t, err)
	assert.Equal(t, models.ContentScheduled, scheduled.Status)
	require.NotNil(t, scheduled.PublishAt)
	assert.Equal(t, publishAt, *scheduled.PublishAt)

	_, err = env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerCancel, nil)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)

	due, err := env.svc.DueForPublishing(env.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	env.clock.Advance(49 * time.Hour)
	due, err = env.svc.DueForPublishing(env.ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	published, err := env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerPublish, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContentPublished, published.Status)
}

func TestRework_ClearsGate(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	issued, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)
	_, err = env.svc.RequestAdjustment(env.ctx, issued.Link.Token, "", "shorter please")
	require.NoError(t, err)

	reworked, err := env.svc.Transition(env.ctx, env.tenant.ID, item.ID, lifecycle.TriggerRework, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContentInProduction, reworked.Status)
	assert.False(t, reworked.InternalApproved)
}

func TestSetInternalApproval_RequiresReviewer(t *testing.T) {
	env := newTestEnv(t)
	item := env.draft(t)

	err := env.svc.SetInternalApproval(env.ctx, env.tenant.ID, item.ID, true, env.writer)
	require.ErrorIs(t, err, ErrNotReviewer)
	assert.Equal(t, CodeForbidden, Code(err))

	require.NoError(t, env.svc.SetInternalApproval(env.ctx, env.tenant.ID, item.ID, true, env.reviewer))
	got, err := env.svc.GetContent(env.ctx, env.tenant.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, got.InternalApproved)
	require.NotNil(t, got.InternalApprovedBy)
	assert.Equal(t, env.reviewer.ID, *got.InternalApprovedBy)
}

func TestUpdateContent_NotEditableWhilePending(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	_, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	item.Title = "Sneaky edit"
	err = env.svc.UpdateContent(env.ctx, item)
	require.ErrorIs(t, err, db.ErrStateConflict)
}

func TestCreateContent_Validation(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.CreateContent(env.ctx, &models.ContentItem{TenantID: env.tenant.ID, ClientID: env.client.ID, Title: "  "})
	require.ErrorIs(t, err, validation.ErrInvalid)

	other := env.store.AddTenant("Other", "other")
	foreign := env.store.AddClient(other.ID, "Foreign", "f@example.com")
	err = env.svc.CreateContent(env.ctx, &models.ContentItem{TenantID: env.tenant.ID, ClientID: foreign.ID, Title: "x"})
	require.ErrorIs(t, err, db.ErrClientNotFound)
}

func TestCreateContent_CarriesClientName(t *testing.T) {
	env := newTestEnv(t)
	item := env.draft(t)
	assert.Equal(t, "Acme Bakery", item.ClientName)
	assert.Equal(t, models.ContentDraft, item.Status)
}

func TestHistory_TenantScoped(t *testing.T) {
	env := newTestEnv(t)
	item := env.ready(t)
	_, err := env.svc.IssueLink(env.ctx, env.tenant.ID, item.ID, nil)
	require.NoError(t, err)

	other := env.store.AddTenant("Other", "other")
	_, err = env.svc.History(env.ctx, other.ID, item.ID, false)
	require.ErrorIs(t, err, db.ErrContentNotFound)

	_, err = env.svc.IssueLink(env.ctx, other.ID, item.ID, nil)
	require.ErrorIs(t, err, db.ErrContentNotFound)
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{db.ErrApprovalLinkNotFound, CodeNotFound},
		{db.ErrContentNotFound, CodeNotFound},
		{db.ErrApprovalLinkExpired, CodeExpired},
		{db.ErrApprovalLinkResolved, CodeAlreadyResolved},
		{db.ErrStateConflict, CodeStateConflict},
		{db.ErrApprovalLinkSuperseded, CodeStateConflict},
		{db.ErrUserNotFound, CodeNotFound},
		{db.ErrClientNotFound, CodeNotFound},
		{db.ErrClientExists, CodeConflict},
		{ErrNotAdmin, CodeForbidden},
		{validation.ValidateComment(""), CodeValidation},
		{db.ErrInternalGateClosed, CodeInternalApprovalRequired},
		{ErrNotReviewer, CodeForbidden},
		{assert.AnError, CodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err), "Code(%v)", tt.err)
	}
}

func TestLinkURL(t *testing.T) {
	assert.Equal(t, "https://x.example/approve?token=abc", LinkURL("https://x.example", "abc"))
	assert.Equal(t, "https://x.example/approve?token=abc", LinkURL("https://x.example/", "abc"))
}
