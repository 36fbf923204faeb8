package vip

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubStore struct {
	grants    []Grant
	insertErr error
	nextID    int64
}

func (s *stubStore) Insert(ctx context.Context, g *Grant) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	g.ID = s.nextID
	s.grants = append(s.grants, *g)
	return nil
}

func (s *stubStore) ActiveForUser(ctx context.Context, userID int64, now time.Time) (*Grant, error) {
	var best *Grant
	for i := range s.grants {
		g := s.grants[i]
		if g.UserID != userID || !g.Active(now) {
			continue
		}
		if best == nil || g.ExpiresAt.After(best.ExpiresAt) {
			best = &s.grants[i]
		}
	}
	return best, nil
}

func (s *stubStore) Recent(ctx context.Context, limit int) ([]Grant, error) {
	out := make([]Grant, 0, limit)
	for i := len(s.grants) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.grants[i])
	}
	return out, nil
}

func newTestService(store Store, days int) *Service {
	svc := NewService(store, days)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestServiceGrant(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, 30)

	g, err := svc.Grant(context.Background(), 42, "stars")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if g.ID != 1 {
		t.Errorf("ID = %d, want 1", g.ID)
	}
	want := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	if !g.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", g.ExpiresAt, want)
	}
}

func TestServiceGrantDefaultDuration(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, 0)

	g, err := svc.Grant(context.Background(), 1, "crypto")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if got := g.ExpiresAt.Sub(g.GrantedAt); got != 30*24*time.Hour {
		t.Errorf("duration = %v, want 720h", got)
	}
}

// Duplicate completions each produce their own grant row; nothing merges them.
func TestServiceGrantNoDeduplication(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, 30)

	if _, err := svc.Grant(context.Background(), 42, "stars"); err != nil {
		t.Fatalf("first Grant: %v", err)
	}
	if _, err := svc.Grant(context.Background(), 42, "stars"); err != nil {
		t.Fatalf("second Grant: %v", err)
	}
	if len(store.grants) != 2 {
		t.Fatalf("stored grants = %d, want 2", len(store.grants))
	}
	if store.grants[0].ExpiresAt != store.grants[1].ExpiresAt {
		t.Errorf("grants should be identical windows, got %v and %v",
			store.grants[0].ExpiresAt, store.grants[1].ExpiresAt)
	}
}

func TestServiceGrantStoreError(t *testing.T) {
	sentinel := errors.New("connection reset")
	store := &stubStore{insertErr: sentinel}
	svc := newTestService(store, 30)

	_, err := svc.Grant(context.Background(), 42, "stars")
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped sentinel", err)
	}
}

func TestServiceActiveGrant(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, 30)

	if g, err := svc.ActiveGrant(context.Background(), 42); err != nil || g != nil {
		t.Fatalf("ActiveGrant empty = %v, %v; want nil, nil", g, err)
	}

	if _, err := svc.Grant(context.Background(), 42, "stars"); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	g, err := svc.ActiveGrant(context.Background(), 42)
	if err != nil {
		t.Fatalf("ActiveGrant: %v", err)
	}
	if g == nil || g.UserID != 42 {
		t.Fatalf("ActiveGrant = %+v, want grant for user 42", g)
	}
}
