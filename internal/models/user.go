package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleMember   = "member"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// User is an agency dashboard user authenticated via OIDC.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Sub       string     `json:"sub"` // OIDC subject identifier
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Picture   string     `json:"picture"`
	Role      string     `json:"role"` // member, reviewer, admin
	TenantID  *uuid.UUID `json:"tenant_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user is a tenant admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsReviewer returns true if the user may set the internal approval flag.
func (u *User) IsReviewer() bool {
	return u.Role == RoleReviewer || u.Role == RoleAdmin
}

// BelongsTo returns true if the user is a member of the given tenant.
func (u *User) BelongsTo(tenantID uuid.UUID) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}
