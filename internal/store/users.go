package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts u. It returns ErrEmailTaken when the email is registered.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	err := s.DB.QueryRowContext(ctx, `
        INSERT INTO users (email, name, password_hash)
        VALUES ($1,$2,$3)
        ON CONFLICT (email) DO NOTHING
        RETURNING created_at`,
		u.Email, u.Name, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, error) {
	u := User{Email: email}
	err := s.DB.QueryRowContext(ctx,
		`SELECT name, password_hash, created_at FROM users WHERE email=$1`, email,
	).Scan(&u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUserName(ctx context.Context, email, name string) error {
	return s.execOne(ctx, `UPDATE users SET name=$2, updated_at=now() WHERE email=$1`, email, name)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	return s.execOne(ctx, `UPDATE users SET password_hash=$2, updated_at=now() WHERE email=$1`, email, hash)
}

// DeleteUser removes the account; saved properties go with it.
func (s *Store) DeleteUser(ctx context.Context, email string) error {
	return s.execOne(ctx, `DELETE FROM users WHERE email=$1`, email)
}

func (s *Store) execOne(ctx context.Context, q string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
