package user

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu        sync.Mutex
	users     map[string]*User // by subject
	createErr error
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*User{}} }

func (m *memRepo) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[u.SubjectID]; ok {
		return &pq.Error{Code: "23505"}
	}
	cp := *u
	m.users[u.SubjectID] = &cp
	return nil
}

func (m *memRepo) GetUserBySubject(ctx context.Context, subjectID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[subjectID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID.String() == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListUsers(ctx context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memRepo) UpdateRole(ctx context.Context, id string, role Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID.String() == id {
			u.Role = role
			return true, nil
		}
	}
	return false, nil
}

func TestGetOrCreateUser_CreatesStaffOnFirstSight(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	u, err := svc.GetOrCreateUser(context.Background(), "sub_1", "  cashier@example.com ")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, u.Role)
	assert.Equal(t, "cashier@example.com", u.Email)
	assert.NotEqual(t, uuid.Nil, u.ID)

	again, err := svc.GetOrCreateUser(context.Background(), "sub_1", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Len(t, repo.users, 1)
}

func TestGetOrCreateUser_RequiresSubject(t *testing.T) {
	_, err := NewService(newMemRepo()).GetOrCreateUser(context.Background(), "", "a@b.c")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetOrCreateUser_RequiresEmailForNewUser(t *testing.T) {
	repo := newMemRepo()
	_, err := NewService(repo).GetOrCreateUser(context.Background(), "sub_2", "")
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.Empty(t, repo.users)
}

func TestGetOrCreateUser_PropagatesStoreErrors(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = errors.New("connection reset")
	_, err := NewService(repo).GetOrCreateUser(context.Background(), "sub_3", "x@y.z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetOrCreateUser_ConcurrentFirstSight(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.GetOrCreateUser(context.Background(), "sub_race", "race@example.com")
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestUpdateRole(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	u, err := svc.GetOrCreateUser(context.Background(), "sub_4", "v@example.com")
	require.NoError(t, err)

	updated, err := svc.UpdateRole(context.Background(), u.ID.String(), "admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)

	_, err = svc.UpdateRole(context.Background(), u.ID.String(), "OWNER")
	assert.ErrorIs(t, err, ErrInvalidRole)

	missing, err := svc.UpdateRole(context.Background(), uuid.NewString(), "STAFF")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUser_OwnsVendor(t *testing.T) {
	v := uuid.New()
	u := &User{Role: RoleVendorViewOnly, VendorIDs: []uuid.UUID{v}}
	assert.True(t, u.OwnsVendor(v))
	assert.False(t, u.OwnsVendor(uuid.New()))
	assert.False(t, u.IsAdmin())

	var nobody *User
	assert.False(t, nobody.OwnsVendor(v))
	assert.False(t, nobody.IsAdmin())
}
