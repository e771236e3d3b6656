package vending

import "errors"

var (
	// ErrInvalidState is returned when a value does not name a machine state
	ErrInvalidState = errors.New("invalid machine state")
)
