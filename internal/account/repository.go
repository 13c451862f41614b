// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// User is a registered account.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
	LastLoginAt   time.Time
}

// Purpose names what a single-use token authorizes.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify-email"
	PurposeChangeEmail   Purpose = "change-email"
	PurposeResetPassword Purpose = "reset-password"
)

// Token is a single-use code mailed to the user.
type Token struct {
	Token     string
	UserID    string
	Purpose   Purpose
	Email     string
	ExpiresAt time.Time
}

// Repository persists users and tokens.
type Repository interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id string) error
	CreateToken(ctx context.Context, t Token) error
	// ConsumeToken removes and returns the token.
	ConsumeToken(ctx context.Context, token string) (Token, error)
}

// SQLiteRepository stores accounts in the users and account_tokens tables
// created by database.Open.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, email_verified, created_at, last_login_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.EmailVerified, formatTime(u.CreatedAt), formatTime(u.LastLoginAt))
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, email_verified, created_at, last_login_at`

func (r *SQLiteRepository) scanUser(row *sql.Row) (User, error) {
	var u User
	var created, lastLogin string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailVerified, &created, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("reading user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	u.LastLoginAt = parseTime(lastLogin)
	return u, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, email_verified = ?, last_login_at = ? WHERE id = ?`,
		u.Email, u.PasswordHash, u.EmailVerified, formatTime(u.LastLoginAt), u.ID)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM account_tokens WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("deleting tokens: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return tx.Commit()
}

func (r *SQLiteRepository) CreateToken(ctx context.Context, t Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_tokens (token, user_id, purpose, email, expires_at) VALUES (?, ?, ?, ?, ?)`,
		t.Token, t.UserID, string(t.Purpose), t.Email, formatTime(t.ExpiresAt))
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ConsumeToken(ctx context.Context, token string) (Token, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Token{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var t Token
	var purpose, expires string
	err = tx.QueryRowContext(ctx,
		`SELECT token, user_id, purpose, email, expires_at FROM account_tokens WHERE token = ?`, token).
		Scan(&t.Token, &t.UserID, &purpose, &t.Email, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrTokenNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("reading token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM account_tokens WHERE token = ?`, token); err != nil {
		return Token{}, fmt.Errorf("deleting token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Token{}, fmt.Errorf("committing: %w", err)
	}
	t.Purpose = Purpose(purpose)
	t.ExpiresAt = parseTime(expires)
	return t, nil
}
