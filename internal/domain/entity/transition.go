package entity

import "time"

// TransitionRecord is one handled machine operation in the audit history
type TransitionRecord struct {
	ID            int64     `json:"id"`
	MachineID     string    `json:"machine_id"`
	Trigger       string    `json:"trigger"`
	PreviousState string    `json:"previous_state"`
	NewState      string    `json:"new_state"`
	Inventory     int       `json:"inventory"`
	UnitsReleased int       `json:"units_released"`
	MessageKinds  string    `json:"message_kinds"`
	MessageText   string    `json:"message_text"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// SalesSummary aggregates the history of one machine
type SalesSummary struct {
	MachineID     string `json:"machine_id"`
	Operations    int    `json:"operations"`
	UnitsReleased int    `json:"units_released"`
	Refills       int    `json:"refills"`
	Refunds       int    `json:"refunds"`
}
