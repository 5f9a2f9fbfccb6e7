package domain

import "errors"

var (
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrHandlerFault     = errors.New("listen handler fault")

	ErrInvalidRecord    = errors.New("invalid record")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrInvalidDirective = errors.New("invalid listen directive")
	ErrEmptyMessage     = errors.New("message is empty")
)
