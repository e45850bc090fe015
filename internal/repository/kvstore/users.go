package kvstore

import (
	"context"

	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/kv"
)

type UserRepository struct {
	store kv.Store
	guard guard
}

func NewUserRepository(store kv.Store) *UserRepository {
	return &UserRepository{store: store, guard: newGuard()}
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(userdomain.Repository) error) error {
	return r.guard.run(func(g guard) error {
		return fn(&UserRepository{store: r.store, guard: g})
	})
}

func (r *UserRepository) List(ctx context.Context) ([]userdomain.User, error) {
	var users []userdomain.User
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyCustomers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []userdomain.User{}
	}
	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, users []userdomain.User) error {
	return kv.PutJSON(ctx, r.store, kv.KeyCustomers, users)
}
