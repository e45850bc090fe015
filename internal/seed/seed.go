// Package seed installs fixture data for local development.
package seed

import (
	"context"
	"time"

	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/pkg/logger"
)

const (
	DemoUserID       = "UID123456"
	DemoUserEasyID   = "test123demo"
	DemoUserPassword = "test123"
)

type UserEnsurer interface {
	EnsureUser(ctx context.Context, u userdomain.User) (bool, error)
}

func DemoUser() userdomain.User {
	return userdomain.User{
		ID:           DemoUserID,
		EasyID:       DemoUserEasyID,
		Name:         "Test User",
		Address:      "123 Demo Street, Test City, Demo State - 123456",
		Mobile:       "9876543210",
		Designation:  "Software Developer",
		Email:        "test@demo.com",
		Password:     DemoUserPassword,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ReferralCode: userdomain.ReferralCode("Test User", DemoUserID),
	}
}

// Run adds the demo account unless it already exists.
func Run(ctx context.Context, users UserEnsurer, log logger.Logger) error {
	created, err := users.EnsureUser(ctx, DemoUser())
	if err != nil {
		return err
	}
	if created {
		log.Info("seed: demo user created", "user_id", DemoUserID, "easy_id", DemoUserEasyID)
	}
	return nil
}
