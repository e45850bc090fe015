package kvstore

import (
	"context"
	"time"

	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/kv"
)

// SessionStore keeps one user snapshot per session slot, plus the expiry of
// every issued slot under session_expiry.
type SessionStore struct {
	store kv.Store
	guard guard
}

func NewSessionStore(store kv.Store) *SessionStore {
	return &SessionStore{store: store, guard: newGuard()}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (*userdomain.User, error) {
	var current userdomain.User
	ok, err := kv.GetJSON(ctx, s.store, kv.SessionKey(sessionID), &current)
	if err != nil || !ok {
		return nil, err
	}
	return &current, nil
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, user userdomain.User) error {
	return kv.PutJSON(ctx, s.store, kv.SessionKey(sessionID), user)
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, kv.SessionKey(sessionID)); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}
	return s.guard.run(func(guard) error {
		expiry, err := s.expiry(ctx)
		if err != nil {
			return err
		}
		if _, ok := expiry[sessionID]; !ok {
			return nil
		}
		delete(expiry, sessionID)
		return kv.PutJSON(ctx, s.store, kv.KeySessionExpiry, expiry)
	})
}

func (s *SessionStore) Expire(ctx context.Context, sessionID string, at time.Time) error {
	return s.guard.run(func(guard) error {
		expiry, err := s.expiry(ctx)
		if err != nil {
			return err
		}
		expiry[sessionID] = at.UTC()
		return kv.PutJSON(ctx, s.store, kv.KeySessionExpiry, expiry)
	})
}

func (s *SessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := s.guard.run(func(guard) error {
		expiry, err := s.expiry(ctx)
		if err != nil {
			return err
		}
		for sessionID, at := range expiry {
			if !at.Before(now) {
				continue
			}
			if err := s.store.Delete(ctx, kv.SessionKey(sessionID)); err != nil {
				return err
			}
			delete(expiry, sessionID)
			removed++
		}
		if removed == 0 {
			return nil
		}
		return kv.PutJSON(ctx, s.store, kv.KeySessionExpiry, expiry)
	})
	return removed, err
}

func (s *SessionStore) expiry(ctx context.Context) (map[string]time.Time, error) {
	expiry := make(map[string]time.Time)
	if _, err := kv.GetJSON(ctx, s.store, kv.KeySessionExpiry, &expiry); err != nil {
		return nil, err
	}
	if expiry == nil {
		expiry = make(map[string]time.Time)
	}
	return expiry, nil
}
