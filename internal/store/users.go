// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bizpilot/internal/models"
)

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts u, assigning its id and timestamps.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := s.now()
	if u.ID == "" {
		u.ID = s.newID()
	}
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Stats.JoinedAt.IsZero() {
		u.Stats.JoinedAt = now
	}

	doc, err := encodeDoc(u)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.db,
		`INSERT INTO users (id, email, password_hash, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, doc, formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

const userColumns = `id, password_hash, doc`

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.scanUser(s.queryRow(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.queryRow(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email)))
}

// UpdateUser replaces the stored user document.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	return s.updateUser(ctx, s.db, u)
}

// MutateUser loads the user, applies fn and saves the result in one
// transaction.
func (s *Store) MutateUser(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error) {
	var out *models.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := s.scanUser(s.queryRow(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		if err := s.updateUser(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (s *Store) updateUser(ctx context.Context, q DBTX, u *models.User) error {
	u.UpdatedAt = s.now()
	u.Email = NormalizeEmail(u.Email)
	doc, err := encodeDoc(u)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, q,
		`UPDATE users SET email = ?, password_hash = ?, doc = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.PasswordHash, doc, formatTime(u.UpdatedAt), u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return rowsAffected(res)
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var (
		id, hash string
		doc      []byte
	)
	if err := row.Scan(&id, &hash, &doc); err != nil {
		return nil, notFound(err)
	}
	var u models.User
	if err := decodeDoc(doc, &u); err != nil {
		return nil, err
	}
	u.ID = id
	u.PasswordHash = hash
	return &u, nil
}
