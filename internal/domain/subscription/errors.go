package subscription

import "errors"

var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrUserIDRequired = errors.New("user id is required")
)
