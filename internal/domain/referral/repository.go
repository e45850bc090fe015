package referral

import (
	"context"

	userdomain "policy-records-go/internal/domain/user"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// PendingCode returns "" when the user has no unused code.
	PendingCode(ctx context.Context, userID string) (string, error)
	SetPendingCode(ctx context.Context, userID, code string) error
	ClearPendingCode(ctx context.Context, userID string) error

	ListTransactions(ctx context.Context) ([]Transaction, error)
	AppendTransaction(ctx context.Context, transaction Transaction) error

	// Stats returns zero stats for users without an entry.
	Stats(ctx context.Context, userID string) (Stats, error)
	SaveStats(ctx context.Context, userID string, stats Stats) error

	// ReferrerOf returns "" when userID was not referred.
	ReferrerOf(ctx context.Context, userID string) (string, error)
	SetReferrer(ctx context.Context, userID, referrerID string) error

	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}

type UserFinder interface {
	FindByReferralCode(ctx context.Context, code string) (*userdomain.User, error)
}
