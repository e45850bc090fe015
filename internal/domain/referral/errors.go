package referral

import "errors"

var (
	ErrUnknownCode     = errors.New("unknown referral code")
	ErrUserIDRequired  = errors.New("user id is required")
	ErrInvalidPurchase = errors.New("invalid purchase")
)
