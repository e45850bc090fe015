package user

import "time"

type Cache interface {
	GetByID(userID string) (*User, bool)
	SetByID(userID string, user *User, ttl time.Duration)
	DeleteByID(userID string)
}

type noopCache struct{}

func (noopCache) GetByID(string) (*User, bool) {
	return nil, false
}

func (noopCache) SetByID(string, *User, time.Duration) {}

func (noopCache) DeleteByID(string) {}
