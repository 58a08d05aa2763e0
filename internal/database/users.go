package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// User is an application login account, distinct from floor staff.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

// UsersStore manages login accounts.
type UsersStore struct {
	db DBTX
}

// NewUsersStore creates a UsersStore over db.
func NewUsersStore(db DBTX) *UsersStore {
	return &UsersStore{db: db}
}

const userColumns = `id, username, email, hashed_password, role, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user for login. Returns pgx.ErrNoRows when absent.
func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID fetches a user by id. Returns pgx.ErrNoRows when absent.
func (s *UsersStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// CreateUser inserts a new account and returns it with generated fields.
func (s *UsersStore) CreateUser(ctx context.Context, username, email, hashedPassword, role string) (*User, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, hashed_password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		username, email, hashedPassword, role)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// ListUsers returns all accounts, oldest first.
func (s *UsersStore) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserRole changes an account's role. Returns pgx.ErrNoRows when absent.
func (s *UsersStore) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteUser removes an account. Returns pgx.ErrNoRows when absent.
func (s *UsersStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
