// Package session tracks who is logged in. A Holder owns one "current user"
// slot; the default slot (empty session id) behaves like a single browser
// tab, while the HTTP server opens one slot per issued token.
package session

import (
	"context"
	"errors"
	"time"

	userdomain "policy-records-go/internal/domain/user"

	"github.com/google/uuid"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Store interface {
	// Load returns nil without error when the slot is empty.
	Load(ctx context.Context, sessionID string) (*userdomain.User, error)
	Save(ctx context.Context, sessionID string, user userdomain.User) error
	Clear(ctx context.Context, sessionID string) error
	// Expire records when an issued slot lapses.
	Expire(ctx context.Context, sessionID string, at time.Time) error
	// Sweep clears every slot that lapsed before now and reports how many.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type Holder struct {
	store     Store
	sessionID string
}

func NewHolder(store Store, sessionID string) *Holder {
	return &Holder{store: store, sessionID: sessionID}
}

func (h *Holder) ID() string {
	return h.sessionID
}

// Login replaces whatever profile the slot held.
func (h *Holder) Login(ctx context.Context, user userdomain.User) error {
	return h.store.Save(ctx, h.sessionID, user)
}

func (h *Holder) Logout(ctx context.Context) error {
	return h.store.Clear(ctx, h.sessionID)
}

func (h *Holder) CurrentUser(ctx context.Context) (*userdomain.User, error) {
	return h.store.Load(ctx, h.sessionID)
}

func (h *Holder) IsAuthenticated(ctx context.Context) (bool, error) {
	current, err := h.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

// Refresh overwrites the stored snapshot when the slot belongs to the same
// user, so profile and subscription edits show up in the session.
func (h *Holder) Refresh(ctx context.Context, user userdomain.User) error {
	current, err := h.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.ID != user.ID {
		return nil
	}
	return h.Login(ctx, user)
}

type Manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Start logs user into a new slot with a random id that lapses at expiresAt.
// Slots that have already lapsed are swept first.
func (m *Manager) Start(ctx context.Context, user userdomain.User, expiresAt time.Time) (*Holder, error) {
	if _, err := m.store.Sweep(ctx, m.now()); err != nil {
		return nil, err
	}

	holder := NewHolder(m.store, uuid.NewString())
	if err := holder.Login(ctx, user); err != nil {
		return nil, err
	}
	if err := m.store.Expire(ctx, holder.ID(), expiresAt); err != nil {
		_ = holder.Logout(ctx)
		return nil, err
	}
	return holder, nil
}

func (m *Manager) Open(sessionID string) *Holder {
	return NewHolder(m.store, sessionID)
}

// Default is the single tab-wide slot stored under currentUser.
func (m *Manager) Default() *Holder {
	return NewHolder(m.store, "")
}
