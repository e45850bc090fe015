package records

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// List returns an empty slice when the owner has no collection yet.
	List(ctx context.Context, ownerID string) ([]PolicyRecord, error)
	// Save rewrites the owner's whole collection.
	Save(ctx context.Context, ownerID string, records []PolicyRecord) error
}
