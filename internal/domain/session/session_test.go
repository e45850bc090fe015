package session

import (
	"context"
	"testing"
	"time"

	userdomain "policy-records-go/internal/domain/user"
)

type fakeStore struct {
	slots  map[string]userdomain.User
	expiry map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{slots: make(map[string]userdomain.User), expiry: make(map[string]time.Time)}
}

func (s *fakeStore) Load(ctx context.Context, sessionID string) (*userdomain.User, error) {
	user, ok := s.slots[sessionID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *fakeStore) Save(ctx context.Context, sessionID string, user userdomain.User) error {
	s.slots[sessionID] = user
	return nil
}

func (s *fakeStore) Clear(ctx context.Context, sessionID string) error {
	delete(s.slots, sessionID)
	delete(s.expiry, sessionID)
	return nil
}

func (s *fakeStore) Expire(ctx context.Context, sessionID string, at time.Time) error {
	s.expiry[sessionID] = at
	return nil
}

func (s *fakeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for sessionID, at := range s.expiry {
		if at.Before(now) {
			delete(s.slots, sessionID)
			delete(s.expiry, sessionID)
			removed++
		}
	}
	return removed, nil
}

func TestHolderLifecycle(t *testing.T) {
	ctx := context.Background()
	holder := NewManager(newFakeStore()).Default()

	ok, err := holder.IsAuthenticated(ctx)
	if err != nil || ok {
		t.Fatalf("fresh holder authenticated=%v err=%v", ok, err)
	}

	if err := holder.Login(ctx, userdomain.User{ID: "UID1", Name: "Asha"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := holder.Login(ctx, userdomain.User{ID: "UID2", Name: "Ravi"}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	current, err := holder.CurrentUser(ctx)
	if err != nil || current == nil || current.ID != "UID2" {
		t.Fatalf("current = %v, err = %v; want UID2 to replace UID1", current, err)
	}

	if err := holder.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	ok, _ = holder.IsAuthenticated(ctx)
	if ok {
		t.Fatal("expected logged out holder")
	}
}

func TestRefreshOnlyTouchesSameUser(t *testing.T) {
	ctx := context.Background()
	holder := NewHolder(newFakeStore(), "s1")

	if err := holder.Refresh(ctx, userdomain.User{ID: "UID1"}); err != nil {
		t.Fatalf("refresh empty: %v", err)
	}
	if ok, _ := holder.IsAuthenticated(ctx); ok {
		t.Fatal("refresh must not log anyone in")
	}

	_ = holder.Login(ctx, userdomain.User{ID: "UID1", Name: "Old"})
	_ = holder.Refresh(ctx, userdomain.User{ID: "UID2", Name: "Other"})
	_ = holder.Refresh(ctx, userdomain.User{ID: "UID1", Name: "New"})

	current, _ := holder.CurrentUser(ctx)
	if current.Name != "New" {
		t.Fatalf("name = %q, want New", current.Name)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(newFakeStore())

	expiresAt := time.Now().Add(time.Hour)

	first, err := manager.Start(ctx, userdomain.User{ID: "UID1"}, expiresAt)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := manager.Start(ctx, userdomain.User{ID: "UID2"}, expiresAt)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.ID() == "" || first.ID() == second.ID() {
		t.Fatalf("session ids %q / %q", first.ID(), second.ID())
	}

	if err := manager.Open(first.ID()).Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ok, _ := first.IsAuthenticated(ctx); ok {
		t.Fatal("first session should be cleared")
	}
	if ok, _ := second.IsAuthenticated(ctx); !ok {
		t.Fatal("second session should survive")
	}
}

func TestStartSweepsLapsedSlots(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := NewManager(store)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	lapsed, err := manager.Start(ctx, userdomain.User{ID: "UID1"}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	live, err := manager.Start(ctx, userdomain.User{ID: "UID2"}, now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := manager.Start(ctx, userdomain.User{ID: "UID3"}, now.Add(time.Hour)); err != nil {
		t.Fatalf("start: %v", err)
	}

	if ok, _ := lapsed.IsAuthenticated(ctx); ok {
		t.Fatal("lapsed slot should be swept")
	}
	if ok, _ := live.IsAuthenticated(ctx); !ok {
		t.Fatal("live slot should survive")
	}
	if len(store.slots) != 2 || len(store.expiry) != 2 {
		t.Fatalf("slots = %d, expiry = %d", len(store.slots), len(store.expiry))
	}
}
