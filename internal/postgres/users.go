package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (email, name, password_hash)
VALUES ($1, $2, $3)
RETURNING id, email, name, password_hash, created_at
`

// CreateUserParams holds the arguments for CreateUser.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
}

// CreateUser inserts a new user and returns the created row.
// Violating the unique email constraint surfaces as a pgconn error
// with code 23505; callers translate it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Email, arg.Name, arg.PasswordHash)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

const getUser = `
SELECT id, email, name, password_hash, created_at
FROM users
WHERE id = $1
`

// GetUser fetches a user by ID. Returns pgx.ErrNoRows (wrapped) when absent.
func (q *Queries) GetUser(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

const getUserByEmail = `
SELECT id, email, name, password_hash, created_at
FROM users
WHERE email = $1
`

// GetUserByEmail fetches a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

const updateUserPassword = `
UPDATE users SET password_hash = $2 WHERE id = $1
`

// UpdateUserPasswordParams holds the arguments for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	ID           pgtype.UUID
	PasswordHash string
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	if _, err := q.db.Exec(ctx, updateUserPassword, arg.ID, arg.PasswordHash); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}
