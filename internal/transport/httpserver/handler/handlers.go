package handler

import (
	"policy-records-go/internal/domain/records"
	"policy-records-go/internal/domain/referral"
	"policy-records-go/internal/domain/subscription"
	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/transport/httpserver/middleware"
	"policy-records-go/pkg/logger"
)

type Options struct {
	PublicURL            string
	RecordsDeleteEnabled bool
}

type Handlers struct {
	Users         *userdomain.Service
	Records       *records.Service
	Referrals     *referral.Service
	Subscriptions *subscription.Service
	Auth          *middleware.SessionAuth
	options       Options
	log           logger.Logger
}

func New(
	users *userdomain.Service,
	recordsService *records.Service,
	referrals *referral.Service,
	subscriptions *subscription.Service,
	auth *middleware.SessionAuth,
	options Options,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Users:         users,
		Records:       recordsService,
		Referrals:     referrals,
		Subscriptions: subscriptions,
		Auth:          auth,
		options:       options,
		log:           log,
	}
}
