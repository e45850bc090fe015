package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"policy-records-go/internal/domain/referral"
	userdomain "policy-records-go/internal/domain/user"

	"github.com/shopspring/decimal"
)

type Subscriber interface {
	UpdateSubscription(ctx context.Context, userID string, subscription userdomain.Subscription) (*userdomain.User, error)
}

type Ledger interface {
	HasPendingCode(ctx context.Context, userID string) (bool, error)
	Discounted(price decimal.Decimal) decimal.Decimal
	ProcessPurchase(ctx context.Context, purchase referral.Purchase) (referral.Result, error)
}

type Quote struct {
	Plan      Plan            `json:"plan"`
	ListPrice decimal.Decimal `json:"listPrice"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

type PurchaseInput struct {
	UserID  string
	PlanID  string
	EventID string
}

type Receipt struct {
	User     *userdomain.User
	Quote    Quote
	Referral referral.Result
}

type Service struct {
	users  Subscriber
	ledger Ledger
	now    func() time.Time
}

func NewService(users Subscriber, ledger Ledger) *Service {
	return &Service{
		users:  users,
		ledger: ledger,
		now:    time.Now,
	}
}

func (s *Service) Plans() []Plan {
	return Catalogue()
}

// Quote prices a plan for userID, applying the signup discount while the
// user still has an unused referral code.
func (s *Service) Quote(ctx context.Context, userID, planID string) (Quote, error) {
	plan, ok := FindPlan(planID)
	if !ok {
		return Quote{}, ErrPlanNotFound
	}
	quote := Quote{Plan: plan, ListPrice: plan.Price, Discount: decimal.Zero, Total: plan.Price}
	if strings.TrimSpace(userID) == "" {
		return quote, nil
	}

	pending, err := s.ledger.HasPendingCode(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	if pending {
		quote.Total = s.ledger.Discounted(plan.Price)
		quote.Discount = plan.Price.Sub(quote.Total)
	}
	return quote, nil
}

// Purchase activates the plan on the user and then settles referral
// commission on the plan's list price. A ledger failure is returned
// alongside the already updated user.
func (s *Service) Purchase(ctx context.Context, input PurchaseInput) (*Receipt, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, ErrUserIDRequired
	}
	quote, err := s.Quote(ctx, input.UserID, input.PlanID)
	if err != nil {
		return nil, err
	}

	start := s.now().UTC()
	updated, err := s.users.UpdateSubscription(ctx, input.UserID, userdomain.Subscription{
		PlanID:    quote.Plan.ID,
		Duration:  quote.Plan.Duration,
		Price:     quote.Plan.Price,
		StartDate: start,
		EndDate:   quote.Plan.EndDate(start),
		Status:    userdomain.SubscriptionActive,
	})
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{User: updated, Quote: quote}
	result, err := s.ledger.ProcessPurchase(ctx, referral.Purchase{
		EventID:   input.EventID,
		UserID:    input.UserID,
		PlanPrice: quote.ListPrice,
	})
	if err != nil {
		return receipt, fmt.Errorf("settle referral: %w", err)
	}
	receipt.Referral = result
	return receipt, nil
}
