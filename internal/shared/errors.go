package shared

import "errors"

var (
	// ErrNotFound indicates a missing resource or dangling reference.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates bad input shape or range.
	ErrValidation = errors.New("validation failed")
	// ErrOutOfStock indicates insufficient product quantity.
	ErrOutOfStock = errors.New("insufficient stock")
	// ErrInUse indicates a record still referenced by other rows.
	ErrInUse = errors.New("record is referenced by other records")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a request without a valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
