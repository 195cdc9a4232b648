package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounter) CountApprovalLinksByStatus(ctx context.Context, now time.Time) (map[string]int64, error) {
	return f.counts, f.err
}

func TestLinkCollector(t *testing.T) {
	c := NewLinkCollector(&fakeCounter{counts: map[string]int64{
		"pending":  3,
		"approved": 2,
		"expired":  1,
	}})

	expected := `
# HELP contentflow_approval_links Approval links by status; pending links past expiry are reported as expired
# TYPE contentflow_approval_links gauge
contentflow_approval_links{status="approved"} 2
contentflow_approval_links{status="expired"} 1
contentflow_approval_links{status="pending"} 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected collector output: %v", err)
	}
}

func TestLinkCollector_StoreError(t *testing.T) {
	c := NewLinkCollector(&fakeCounter{err: errors.New("db down")})
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Errorf("CollectAndCount() = %d, want 0 on store error", n)
	}
}

func TestRecordResolution(t *testing.T) {
	before := testutil.ToFloat64(resolutions.WithLabelValues("expired"))
	RecordResolution("expired")
	RecordResolution("expired")
	if got := testutil.ToFloat64(resolutions.WithLabelValues("expired")) - before; got != 2 {
		t.Errorf("expired resolutions increased by %v, want 2", got)
	}
}

func TestRecordNotification(t *testing.T) {
	okBefore := testutil.ToFloat64(notifications.WithLabelValues("webhook", "ok"))
	errBefore := testutil.ToFloat64(notifications.WithLabelValues("webhook", "error"))

	RecordNotification("webhook", nil)
	RecordNotification("webhook", errors.New("timeout"))

	if got := testutil.ToFloat64(notifications.WithLabelValues("webhook", "ok")) - okBefore; got != 1 {
		t.Errorf("ok notifications increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(notifications.WithLabelValues("webhook", "error")) - errBefore; got != 1 {
		t.Errorf("failed notifications increased by %v, want 1", got)
	}
}
