package inmemory

import (
	"sync"
	"time"

	userdomain "policy-records-go/internal/domain/user"
)

// UserCache keeps short-lived copies of user profiles so that resolving the
// session on every request does not decode the whole customers list.
type UserCache struct {
	mu    sync.RWMutex
	items map[string]userItem
}

type userItem struct {
	value     userdomain.User
	expiresAt time.Time
}

func NewUserCache() *UserCache {
	return &UserCache{
		items: make(map[string]userItem),
	}
}

func (c *UserCache) GetByID(userID string) (*userdomain.User, bool) {
	now := time.Now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *UserCache) SetByID(userID string, user *userdomain.User, ttl time.Duration) {
	if user == nil || ttl <= 0 {
		c.DeleteByID(userID)
		return
	}

	c.mu.Lock()
	c.items[userID] = userItem{
		value:     *user,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *UserCache) DeleteByID(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}
