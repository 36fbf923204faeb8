// Package vip manages VIP channel access grants.
package vip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Grant is a single VIP access grant for a user.
type Grant struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	GrantedAt time.Time `db:"granted_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Active reports whether the grant covers the given moment.
func (g Grant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// Store persists grants.
type Store interface {
	Insert(ctx context.Context, g *Grant) error
	ActiveForUser(ctx context.Context, userID int64, now time.Time) (*Grant, error)
	Recent(ctx context.Context, limit int) ([]Grant, error)
}

// PostgresStore keeps grants in the vip_grants table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps the given connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert stores a new grant and fills in its assigned id.
func (s *PostgresStore) Insert(ctx context.Context, g *Grant) error {
	const q = `
		INSERT INTO vip_grants (user_id, granted_at, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := s.db.QueryRowxContext(ctx, q, g.UserID, g.GrantedAt, g.ExpiresAt).Scan(&g.ID); err != nil {
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

// ActiveForUser returns the user's grant with the latest expiry that is still
// active at now, or nil when none exists.
func (s *PostgresStore) ActiveForUser(ctx context.Context, userID int64, now time.Time) (*Grant, error) {
	const q = `
		SELECT id, user_id, granted_at, expires_at
		FROM vip_grants
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1`
	var g Grant
	err := s.db.GetContext(ctx, &g, q, userID, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select active grant: %w", err)
	}
	return &g, nil
}

// Recent returns the newest grants, most recent first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Grant, error) {
	const q = `
		SELECT id, user_id, granted_at, expires_at
		FROM vip_grants
		ORDER BY granted_at DESC
		LIMIT $1`
	var grants []Grant
	if err := s.db.SelectContext(ctx, &grants, q, limit); err != nil {
		return nil, fmt.Errorf("select recent grants: %w", err)
	}
	return grants, nil
}
