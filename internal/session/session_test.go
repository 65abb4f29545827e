package session

import (
	"context"
	"testing"
	"time"

	"github.com/pavelanni/questionbd/internal/model"
	"github.com/pavelanni/questionbd/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewManager(s, WithClock(func() time.Time { return now })), &now
}

func TestLoginCheckLogout(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	user := model.SessionUser{ID: "u1", Name: "Rahim", Role: model.UserRoleUser}

	sess, err := m.Login(ctx, "dev", user)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != TTL {
		t.Errorf("expected lifetime %v, got %v", TTL, got)
	}

	got, err := m.Check(ctx, "dev")
	if err != nil || got == nil || got.User.ID != "u1" {
		t.Fatalf("expected live session, got %+v, %v", got, err)
	}

	if err := m.Logout(ctx, "dev"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	got, _ = m.Check(ctx, "dev")
	if got != nil {
		t.Error("expected no session after logout")
	}
	if err := m.Logout(ctx, "dev"); err != nil {
		t.Errorf("expected second logout to be a no-op, got %v", err)
	}
}

func TestLoginOverwrites(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if _, err := m.Login(ctx, "dev", model.SessionUser{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(ctx, "dev", model.SessionUser{ID: "u2"}); err != nil {
		t.Fatal(err)
	}
	got, _ := m.Check(ctx, "dev")
	if got == nil || got.User.ID != "u2" {
		t.Errorf("expected u2, got %+v", got)
	}
}

func TestCheckExpires(t *testing.T) {
	tests := []struct {
		name  string
		after time.Duration
		live  bool
	}{
		{"just issued", 0, true},
		{"at expiry", TTL, true},
		{"past expiry", TTL + time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, now := newTestManager(t)
			ctx := context.Background()
			if _, err := m.Login(ctx, "dev", model.SessionUser{ID: "u1"}); err != nil {
				t.Fatal(err)
			}
			*now = now.Add(tt.after)
			got, err := m.Check(ctx, "dev")
			if err != nil {
				t.Fatal(err)
			}
			if (got != nil) != tt.live {
				t.Errorf("expected live=%v, got %+v", tt.live, got)
			}
			if !tt.live {
				*now = now.Add(-tt.after)
				again, _ := m.Check(ctx, "dev")
				if again != nil {
					t.Error("expected expired session to be cleared")
				}
			}
		})
	}
}
