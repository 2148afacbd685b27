package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/shelfwise/internal/modules/user"
)

// CurrentUser returns the user resolved by Authenticate, or nil.
func CurrentUser(ctx context.Context) *user.User {
	return user.FromContext(ctx)
}

func IsAdmin(u *user.User) bool { return u.IsAdmin() }

// CanWrite reports whether u may mutate orders and stock.
func CanWrite(u *user.User) bool {
	return u != nil && (u.Role == user.RoleAdmin || u.Role == user.RoleStaff)
}

// CanAccessVendor allows admins and the vendor's owner.
func CanAccessVendor(u *user.User, vendorID uuid.UUID) bool {
	return u.IsAdmin() || u.OwnsVendor(vendorID)
}

// CanAccessOrder allows admins and the user who created the order.
func CanAccessOrder(u *user.User, creatorID uuid.UUID) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || u.ID == creatorID
}
