package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStoreUnavailable    = errors.New("store unavailable")
)
