package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

const daysPerMonth = 30

type Plan struct {
	ID            string          `json:"id"`
	Duration      string          `json:"duration"`
	Months        int             `json:"months"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Popular       bool            `json:"popular"`
	Features      []string        `json:"features"`
}

// EndDate counts every month as 30 days.
func (p Plan) EndDate(start time.Time) time.Time {
	return start.AddDate(0, 0, p.Months*daysPerMonth)
}

func Catalogue() []Plan {
	return []Plan{
		{
			ID:            "6months",
			Duration:      "6 Months",
			Months:        6,
			Price:         decimal.NewFromInt(599),
			OriginalPrice: decimal.NewFromInt(899),
			Features: []string{
				"Access to all features",
				"6 months validity",
				"Email support",
				"Regular updates",
			},
		},
		{
			ID:            "12months",
			Duration:      "12 Months",
			Months:        12,
			Price:         decimal.NewFromInt(1099),
			OriginalPrice: decimal.NewFromInt(1599),
			Popular:       true,
			Features: []string{
				"Access to all features",
				"12 months validity",
				"Priority email support",
				"Regular updates",
				"Extended storage",
			},
		},
		{
			ID:            "24months",
			Duration:      "24 Months",
			Months:        24,
			Price:         decimal.NewFromInt(2099),
			OriginalPrice: decimal.NewFromInt(2999),
			Features: []string{
				"Access to all features",
				"24 months validity",
				"24/7 priority support",
				"Regular updates",
				"Unlimited storage",
				"Advanced analytics",
			},
		},
	}
}

func FindPlan(id string) (Plan, bool) {
	for _, plan := range Catalogue() {
		if plan.ID == id {
			return plan, true
		}
	}
	return Plan{}, false
}
