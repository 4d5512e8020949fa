package services

import "errors"

// Common service errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidAmount     = errors.New("payment amount must be greater than zero")
	ErrDuplicateIdentity = errors.New("username already exists")
	ErrUnauthenticated   = errors.New("caller identity required")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrCollectorInactive = errors.New("collector is inactive")
	ErrStaleRecord       = errors.New("record changed, retry the operation")
)
