package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/shelfwise/internal/platform/database"
)

var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrEmailRequired   = errors.New("authenticated user has no primary email")
	ErrInvalidRole     = errors.New("invalid role")
)

// Service defines the interface for user-related business logic.
type Service interface {
	// GetOrCreateUser maps an authenticated subject to its local user, creating a STAFF user on first sight.
	GetOrCreateUser(ctx context.Context, subjectID, primaryEmail string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, id string, role string) (*User, error)
}

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetOrCreateUser(ctx context.Context, subjectID, primaryEmail string) (*User, error) {
	if subjectID == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.repo.GetUserBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	email := strings.TrimSpace(primaryEmail)
	if email == "" {
		return nil, ErrEmailRequired
	}
	u = &User{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Email:     email,
		Role:      RoleStaff,
		VendorIDs: []uuid.UUID{},
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if database.IsDuplicateKey(err) {
			// another request created the same subject first
			if existing, lookupErr := s.repo.GetUserBySubject(ctx, subjectID); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Printf("user: created %s (%s) for subject %s", u.ID, u.Email, subjectID)
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *service) UpdateRole(ctx context.Context, id string, role string) (*User, error) {
	r := Role(strings.ToUpper(role))
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q (allowed: ADMIN, STAFF, VENDOR_VIEW_ONLY)", ErrInvalidRole, role)
	}
	ok, err := s.repo.UpdateRole(ctx, id, r)
	if err != nil || !ok {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}
