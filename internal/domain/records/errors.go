package records

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrOwnerRequired  = errors.New("owner id is required")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidPatch   = errors.New("invalid patch")
)
