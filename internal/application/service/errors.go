package service

import "errors"

var (
	// ErrMachineNotFound is returned when no machine is registered under an id
	ErrMachineNotFound = errors.New("machine not found")

	// ErrMachineExists is returned when registering an id twice
	ErrMachineExists = errors.New("machine already exists")

	// ErrInvalidMachineID is returned for ids that fail validation
	ErrInvalidMachineID = errors.New("invalid machine id")

	// ErrInvalidInventory is returned for negative initial inventories
	ErrInvalidInventory = errors.New("invalid inventory")
)
