package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	userdomain "policy-records-go/internal/domain/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Config struct {
	Level1Rate     decimal.Decimal
	Level2Rate     decimal.Decimal
	SignupDiscount decimal.Decimal
	// ReplayGuard rejects a second purchase with an already seen event id.
	ReplayGuard bool
}

func DefaultConfig() Config {
	return Config{
		Level1Rate:     decimal.RequireFromString("0.05"),
		Level2Rate:     decimal.RequireFromString("0.02"),
		SignupDiscount: decimal.NewFromInt(100),
		ReplayGuard:    true,
	}
}

type Service struct {
	repo  Repository
	users UserFinder
	cfg   Config
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, users UserFinder) *Service {
	return NewServiceWithConfig(repo, users, DefaultConfig())
}

func NewServiceWithConfig(repo Repository, users UserFinder, cfg Config) *Service {
	return &Service{
		repo:  repo,
		users: users,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CheckCode resolves a code entered on the signup form.
func (s *Service) CheckCode(ctx context.Context, code string) (*CodeCheck, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, ErrUnknownCode
	}
	referrer, err := s.users.FindByReferralCode(ctx, code)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, ErrUnknownCode
	}
	if err != nil {
		return nil, err
	}
	return &CodeCheck{
		ReferrerID:   referrer.ID,
		ReferrerName: referrer.Name,
		ReferralCode: referrer.ReferralCode,
		Discount:     s.cfg.SignupDiscount,
	}, nil
}

// AttachSignupCode keeps the code a new user signed up with until their first
// purchase consumes it.
func (s *Service) AttachSignupCode(ctx context.Context, userID, code string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}
	code = normalizeCode(code)
	if code == "" {
		return nil
	}
	return s.repo.SetPendingCode(ctx, userID, code)
}

// HasPendingCode reports whether the user's next purchase earns the signup
// discount.
func (s *Service) HasPendingCode(ctx context.Context, userID string) (bool, error) {
	code, err := s.repo.PendingCode(ctx, userID)
	if err != nil {
		return false, err
	}
	return code != "", nil
}

func (s *Service) SignupDiscount() decimal.Decimal {
	return s.cfg.SignupDiscount
}

// Discounted subtracts the signup discount from price, never going below zero.
func (s *Service) Discounted(price decimal.Decimal) decimal.Decimal {
	out := price.Sub(s.cfg.SignupDiscount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// ProcessPurchase credits the direct referrer and, when that referrer was
// referred too, the referrer one level up. The pending code is consumed, so
// only the first purchase after signup earns commission. A code that matches
// no user is left pending and nothing is written.
func (s *Service) ProcessPurchase(ctx context.Context, purchase Purchase) (Result, error) {
	if strings.TrimSpace(purchase.UserID) == "" {
		return Result{}, ErrUserIDRequired
	}
	if purchase.PlanPrice.IsNegative() {
		return Result{}, fmt.Errorf("%w: negative plan price", ErrInvalidPurchase)
	}

	result := Result{Reason: ReasonNoPendingCode}
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if s.cfg.ReplayGuard && purchase.EventID != "" {
			seen, err := tx.IsEventProcessed(ctx, purchase.EventID)
			if err != nil {
				return err
			}
			if seen {
				result.Reason = ReasonReplayed
				return nil
			}
		}

		code, err := tx.PendingCode(ctx, purchase.UserID)
		if err != nil {
			return err
		}
		if code == "" {
			return nil
		}

		referrer, err := s.users.FindByReferralCode(ctx, code)
		if errors.Is(err, userdomain.ErrUserNotFound) {
			result.Reason = ReasonUnknownCode
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now().UTC()
		direct := Transaction{
			ID:             "ref_" + s.newID(),
			ReferrerID:     referrer.ID,
			ReferredUserID: purchase.UserID,
			PlanPrice:      purchase.PlanPrice,
			Commission:     commission(purchase.PlanPrice, s.cfg.Level1Rate),
			Level:          LevelDirect,
			Date:           now,
			Status:         StatusPending,
		}
		if err := s.credit(ctx, tx, direct); err != nil {
			return err
		}
		result.Transactions = append(result.Transactions, direct)

		upstream, err := tx.ReferrerOf(ctx, referrer.ID)
		if err != nil {
			return err
		}
		if upstream != "" {
			indirect := Transaction{
				ID:             "ref2_" + s.newID(),
				ReferrerID:     upstream,
				ReferredUserID: referrer.ID,
				PlanPrice:      purchase.PlanPrice,
				Commission:     commission(purchase.PlanPrice, s.cfg.Level2Rate),
				Level:          LevelIndirect,
				Date:           now,
				Status:         StatusPending,
			}
			if err := s.credit(ctx, tx, indirect); err != nil {
				return err
			}
			result.Transactions = append(result.Transactions, indirect)
		}

		if err := tx.SetReferrer(ctx, purchase.UserID, referrer.ID); err != nil {
			return err
		}
		if err := tx.ClearPendingCode(ctx, purchase.UserID); err != nil {
			return err
		}
		if s.cfg.ReplayGuard && purchase.EventID != "" {
			if err := tx.MarkEventProcessed(ctx, purchase.EventID); err != nil {
				return err
			}
		}

		result.Applied = true
		result.Reason = ReasonApplied
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, ErrUserIDRequired
	}
	return s.repo.Stats(ctx, userID)
}

// Transactions returns the ledger entries that pay userID, newest first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	all, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ReferrerID == userID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// RebuildStats recomputes the user's aggregate from the ledger and stores it.
func (s *Service) RebuildStats(ctx context.Context, userID string) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, ErrUserIDRequired
	}

	var stats Stats
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		all, err := tx.ListTransactions(ctx)
		if err != nil {
			return err
		}
		stats = Stats{}
		for _, entry := range all {
			if entry.ReferrerID == userID {
				stats = applyTransaction(stats, entry)
			}
		}
		return tx.SaveStats(ctx, userID, stats)
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Link builds the shareable signup link for a referral code.
func Link(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "?ref=" + code
}

func (s *Service) credit(ctx context.Context, tx Repository, entry Transaction) error {
	if err := tx.AppendTransaction(ctx, entry); err != nil {
		return err
	}
	stats, err := tx.Stats(ctx, entry.ReferrerID)
	if err != nil {
		return err
	}
	return tx.SaveStats(ctx, entry.ReferrerID, applyTransaction(stats, entry))
}

func applyTransaction(stats Stats, entry Transaction) Stats {
	switch entry.Level {
	case LevelDirect:
		stats.TotalReferrals++
		stats.Level1Referrals++
	case LevelIndirect:
		stats.Level2Referrals++
	}
	stats.TotalEarnings = stats.TotalEarnings.Add(entry.Commission)
	if entry.Status == StatusPending {
		stats.PendingRewards = stats.PendingRewards.Add(entry.Commission)
	}
	return stats
}

func commission(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate).Round(2)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
