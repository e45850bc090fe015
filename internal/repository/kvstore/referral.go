package kvstore

import (
	"context"
	"slices"

	"policy-records-go/internal/domain/referral"
	"policy-records-go/internal/kv"
)

type ReferralRepository struct {
	store kv.Store
	guard guard
}

func NewReferralRepository(store kv.Store) *ReferralRepository {
	return &ReferralRepository{store: store, guard: newGuard()}
}

func (r *ReferralRepository) Transaction(ctx context.Context, fn func(referral.Repository) error) error {
	return r.guard.run(func(g guard) error {
		return fn(&ReferralRepository{store: r.store, guard: g})
	})
}

func (r *ReferralRepository) PendingCode(ctx context.Context, userID string) (string, error) {
	var code string
	if _, err := kv.GetJSON(ctx, r.store, kv.ReferralCodeKey(userID), &code); err != nil {
		return "", err
	}
	return code, nil
}

func (r *ReferralRepository) SetPendingCode(ctx context.Context, userID, code string) error {
	return kv.PutJSON(ctx, r.store, kv.ReferralCodeKey(userID), code)
}

func (r *ReferralRepository) ClearPendingCode(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, kv.ReferralCodeKey(userID))
}

func (r *ReferralRepository) ListTransactions(ctx context.Context) ([]referral.Transaction, error) {
	var items []referral.Transaction
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyReferralTransactions, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []referral.Transaction{}
	}
	return items, nil
}

func (r *ReferralRepository) AppendTransaction(ctx context.Context, transaction referral.Transaction) error {
	return r.guard.run(func(guard) error {
		items, err := r.ListTransactions(ctx)
		if err != nil {
			return err
		}
		return kv.PutJSON(ctx, r.store, kv.KeyReferralTransactions, append(items, transaction))
	})
}

func (r *ReferralRepository) Stats(ctx context.Context, userID string) (referral.Stats, error) {
	var stats referral.Stats
	if _, err := kv.GetJSON(ctx, r.store, kv.ReferralStatsKey(userID), &stats); err != nil {
		return referral.Stats{}, err
	}
	return stats, nil
}

func (r *ReferralRepository) SaveStats(ctx context.Context, userID string, stats referral.Stats) error {
	return kv.PutJSON(ctx, r.store, kv.ReferralStatsKey(userID), stats)
}

func (r *ReferralRepository) ReferrerOf(ctx context.Context, userID string) (string, error) {
	referred, err := r.referredUsers(ctx)
	if err != nil {
		return "", err
	}
	return referred[userID], nil
}

func (r *ReferralRepository) SetReferrer(ctx context.Context, userID, referrerID string) error {
	return r.guard.run(func(guard) error {
		referred, err := r.referredUsers(ctx)
		if err != nil {
			return err
		}
		referred[userID] = referrerID
		return kv.PutJSON(ctx, r.store, kv.KeyReferredUsers, referred)
	})
}

func (r *ReferralRepository) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	events, err := r.processedEvents(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(events, eventID), nil
}

func (r *ReferralRepository) MarkEventProcessed(ctx context.Context, eventID string) error {
	return r.guard.run(func(guard) error {
		events, err := r.processedEvents(ctx)
		if err != nil {
			return err
		}
		if slices.Contains(events, eventID) {
			return nil
		}
		return kv.PutJSON(ctx, r.store, kv.KeyProcessedEvents, append(events, eventID))
	})
}

func (r *ReferralRepository) referredUsers(ctx context.Context) (map[string]string, error) {
	referred := map[string]string{}
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyReferredUsers, &referred); err != nil {
		return nil, err
	}
	if referred == nil {
		referred = map[string]string{}
	}
	return referred, nil
}

func (r *ReferralRepository) processedEvents(ctx context.Context) ([]string, error) {
	var events []string
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyProcessedEvents, &events); err != nil {
		return nil, err
	}
	return events, nil
}
