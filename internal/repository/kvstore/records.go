package kvstore

import (
	"context"

	"policy-records-go/internal/domain/records"
	"policy-records-go/internal/kv"
)

type RecordsRepository struct {
	store kv.Store
	guard guard
}

func NewRecordsRepository(store kv.Store) *RecordsRepository {
	return &RecordsRepository{store: store, guard: newGuard()}
}

func (r *RecordsRepository) Transaction(ctx context.Context, fn func(records.Repository) error) error {
	return r.guard.run(func(g guard) error {
		return fn(&RecordsRepository{store: r.store, guard: g})
	})
}

func (r *RecordsRepository) List(ctx context.Context, ownerID string) ([]records.PolicyRecord, error) {
	var items []records.PolicyRecord
	if _, err := kv.GetJSON(ctx, r.store, kv.RecordsKey(ownerID), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []records.PolicyRecord{}
	}
	return items, nil
}

func (r *RecordsRepository) Save(ctx context.Context, ownerID string, items []records.PolicyRecord) error {
	return kv.PutJSON(ctx, r.store, kv.RecordsKey(ownerID), items)
}
