package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role controls what a user may do across the API.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleStaff          Role = "STAFF"
	RoleVendorViewOnly Role = "VENDOR_VIEW_ONLY"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleVendorViewOnly:
		return true
	}
	return false
}

// User is the local record for an externally authenticated principal.
// @Description User information
// @Description with id, subject_id, email, role, vendor_ids, created_at, and updated_at
type User struct {
	ID        uuid.UUID   `json:"id"`
	SubjectID string      `json:"subject_id"`
	Email     string      `json:"email"`
	Role      Role        `json:"role"`
	VendorIDs []uuid.UUID `json:"vendor_ids"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// OwnsVendor reports whether vendorID is one of the user's vendors.
func (u *User) OwnsVendor(vendorID uuid.UUID) bool {
	if u == nil {
		return false
	}
	for _, id := range u.VendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying u.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored by NewContext, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}
