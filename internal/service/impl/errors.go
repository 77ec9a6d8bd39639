package impl

import "errors"

var (
	ErrEmptyPassword  = errors.New("empty password")
	ErrMalformedHash  = errors.New("malformed password hash")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("missing subject")
)
