package vip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/vipbot/core/logger"
)

// DefaultDurationDays is the subscription length applied when the
// configuration leaves it unset.
const DefaultDurationDays = 30

// Service issues VIP grants after a confirmed payment.
type Service struct {
	store    Store
	duration time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewService builds a Service granting access for the given number of days.
func NewService(store Store, durationDays int) *Service {
	if durationDays <= 0 {
		durationDays = DefaultDurationDays
	}
	log := logger.SVCVIP
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		duration: time.Duration(durationDays) * 24 * time.Hour,
		log:      log,
		now:      time.Now,
	}
}

// Grant records a new access grant for the user. Each confirmed payment
// produces its own grant row; grants are not merged or deduplicated.
func (s *Service) Grant(ctx context.Context, userID int64, method string) (*Grant, error) {
	now := s.now()
	g := &Grant{
		UserID:    userID,
		GrantedAt: now,
		ExpiresAt: now.Add(s.duration),
	}
	if err := s.store.Insert(ctx, g); err != nil {
		s.log.Error("grant insert failed",
			slog.String("event", "vip.grant"),
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("method", method),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("grant vip access: %w", err)
	}
	s.log.Info(fmt.Sprintf("Granted VIP access to user %d until %s", userID, g.ExpiresAt.UTC().Format("2006-01-02 15:04")),
		slog.String("event", "vip.grant"),
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("method", method),
		slog.Int64("grant_id", g.ID),
		slog.Time("expires_at", g.ExpiresAt),
	)
	return g, nil
}

// ActiveGrant returns the user's currently active grant, or nil.
func (s *Service) ActiveGrant(ctx context.Context, userID int64) (*Grant, error) {
	return s.store.ActiveForUser(ctx, userID, s.now())
}

// Recent lists the newest grants for the admin overview.
func (s *Service) Recent(ctx context.Context, limit int) ([]Grant, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Recent(ctx, limit)
}
