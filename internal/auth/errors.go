package auth

import "errors"

// A missing or untrustworthy credential, a vanished subject, or a caller who
// does not own the resource. All but ErrForbidden are reported as 401.
var (
	ErrMissing          = errors.New("missing bearer token")
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrUnknownSubject   = errors.New("token subject no longer exists")
	ErrForbidden        = errors.New("caller does not own this resource")
)
