package externalApi

import "errors"

var (
	ErrNotFound    = errors.New("symbol not found")
	ErrRateLimited = errors.New("rate limited")
	ErrForbidden   = errors.New("access forbidden")
	ErrNetwork     = errors.New("network error")
)
