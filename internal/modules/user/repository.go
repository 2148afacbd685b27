package user

import "context"

// Repository defines the interface for user data storage.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserBySubject(ctx context.Context, subjectID string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, id string, role Role) (bool, error)
}
