package user

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	List(ctx context.Context) ([]User, error)
	// Save rewrites the whole customers list.
	Save(ctx context.Context, users []User) error
}
