package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const selectUser = `
	SELECT u.id, u.subject_id, u.email, u.role, u.created_at, u.updated_at,
	       COALESCE(array_agg(v.id::text) FILTER (WHERE v.id IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN vendors v ON v.user_id = u.id
`

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, subject_id, email, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, user.ID, user.SubjectID, user.Email, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *postgresRepository) GetUserBySubject(ctx context.Context, subjectID string) (*User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.subject_id = $1 GROUP BY u.id`, subjectID)
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return r.getOne(ctx, selectUser+` WHERE u.id = $1 GROUP BY u.id`, parsedID)
}

func (r *postgresRepository) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` GROUP BY u.id ORDER BY u.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresRepository) UpdateRole(ctx context.Context, id string, role Role) (bool, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, parsedID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var vendorIDs []string
	if err := row.Scan(&u.ID, &u.SubjectID, &u.Email, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, pq.Array(&vendorIDs)); err != nil {
		return nil, err
	}
	u.VendorIDs = make([]uuid.UUID, 0, len(vendorIDs))
	for _, s := range vendorIDs {
		if id, err := uuid.Parse(s); err == nil {
			u.VendorIDs = append(u.VendorIDs, id)
		}
	}
	return u, nil
}
