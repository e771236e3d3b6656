package utils

import (
	"fmt"
	"regexp"
)

var machineIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateMachineID checks that id is usable in URLs and as a metric label
func ValidateMachineID(id string) error {
	if !machineIDRegex.MatchString(id) {
		return fmt.Errorf("invalid machine id: %q", id)
	}
	return nil
}

// ValidateInventory rejects negative unit counts
func ValidateInventory(count int) error {
	if count < 0 {
		return fmt.Errorf("inventory must not be negative: %d", count)
	}
	return nil
}
