package user

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// User is a customer profile as persisted under the customers-list key.
// Password holds plaintext or a bcrypt hash depending on the configured
// password mode.
type User struct {
	ID           string        `json:"id"`
	EasyID       string        `json:"easyId"`
	Name         string        `json:"name"`
	Address      string        `json:"fullAddress"`
	Mobile       string        `json:"mobileNumber"`
	Designation  string        `json:"designation"`
	Email        string        `json:"email"`
	Password     string        `json:"password"`
	CreatedAt    time.Time     `json:"createdAt"`
	Subscription *Subscription `json:"subscription,omitempty"`
	ReferralCode string        `json:"referralCode,omitempty"`
	ReferredBy   string        `json:"referredBy,omitempty"`
}

type Subscription struct {
	PlanID    string          `json:"planId"`
	Duration  string          `json:"duration"`
	Price     decimal.Decimal `json:"price"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
	Status    string          `json:"status"`
}

type RegisterInput struct {
	Name         string `validate:"required,max=120"`
	Address      string `validate:"required,max=500"`
	Mobile       string `validate:"required,min=3,max=20"`
	Designation  string `validate:"max=120"`
	Email        string `validate:"required,email"`
	Password     string `validate:"required,min=4,max=72"`
	ReferralCode string `validate:"max=32"`
}

// ProfileUpdate carries the editable profile fields; nil leaves a field as is.
type ProfileUpdate struct {
	Name        *string `validate:"omitempty,min=1,max=120"`
	Address     *string `validate:"omitempty,min=1,max=500"`
	Mobile      *string `validate:"omitempty,min=3,max=20"`
	Designation *string `validate:"omitempty,max=120"`
	Email       *string `validate:"omitempty,email"`
}
