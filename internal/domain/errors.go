package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrSourceGone     = errors.New("event source unavailable")
	ErrMalformedEvent = errors.New("malformed event")
)
