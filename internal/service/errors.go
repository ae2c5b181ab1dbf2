package service

import "errors"

var (
	ErrNotFound     = errors.New("error not found")
	ErrInvalidInput = errors.New("error invalid input")
	ErrNoHoldings   = errors.New("error no holdings")
)
