package enums

import "fmt"

// ReservationStatus maps to the reservation_status enum in Postgres.
type ReservationStatus string

const (
	ReservationStatusPending        ReservationStatus = "pending"
	ReservationStatusReadyToConfirm ReservationStatus = "ready_to_confirm"
	ReservationStatusReady          ReservationStatus = "ready"
	ReservationStatusCompleted      ReservationStatus = "completed"
	ReservationStatusCancelled      ReservationStatus = "cancelled"
	ReservationStatusNoShow         ReservationStatus = "no_show"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusReadyToConfirm,
	ReservationStatusReady,
	ReservationStatusCompleted,
	ReservationStatusCancelled,
	ReservationStatusNoShow,
}

// IsValid reports whether the value matches the canonical reservation enum.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
