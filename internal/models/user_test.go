package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{"admin user", RoleAdmin, true},
		{"reviewer", RoleReviewer, false},
		{"member", RoleMember, false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			if got := user.IsAdmin(); got != tt.expected {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_IsReviewer(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{"admin user", RoleAdmin, true},
		{"reviewer", RoleReviewer, true},
		{"member", RoleMember, false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			if got := user.IsReviewer(); got != tt.expected {
				t.Errorf("IsReviewer() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_BelongsTo(t *testing.T) {
	tenantID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name     string
		user     *User
		expected bool
	}{
		{"same tenant", &User{TenantID: &tenantID}, true},
		{"other tenant", &User{TenantID: &otherID}, false},
		{"no tenant", &User{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.BelongsTo(tenantID); got != tt.expected {
				t.Errorf("BelongsTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestContentStatus_Editable(t *testing.T) {
	editable := map[ContentStatus]bool{
		ContentDraft:               true,
		ContentInProduction:        true,
		ContentAdjustmentRequested: true,
	}
	for _, s := range ContentStatuses {
		if got := s.Editable(); got != editable[s] {
			t.Errorf("%s.Editable() = %v, want %v", s, got, editable[s])
		}
	}
	if ContentStatus("archived").Valid() {
		t.Error("unknown status reported as valid")
	}
}

func TestApprovalStatus_Resolved(t *testing.T) {
	if ApprovalPending.Resolved() {
		t.Error("pending reported as resolved")
	}
	if !ApprovalApproved.Resolved() || !ApprovalAdjustmentRequested.Resolved() {
		t.Error("terminal approval status not reported as resolved")
	}
	if ApprovalStatus("rejected").Valid() {
		t.Error("unknown approval status reported as valid")
	}
}
