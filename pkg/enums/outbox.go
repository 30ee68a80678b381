package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder          OutboxAggregateType = "order"
	AggregateReservation    OutboxAggregateType = "reservation"
	AggregateStoreLedger    OutboxAggregateType = "store_ledger_entry"
	AggregateCustomerLedger OutboxAggregateType = "customer_ledger_entry"
	AggregateNotification   OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateReservation,
	AggregateStoreLedger,
	AggregateCustomerLedger,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderPaid                OutboxEventType = "order_paid"
	EventOrderSettled             OutboxEventType = "order_settled"
	EventBalanceToppedUp          OutboxEventType = "balance_topped_up"
	EventCreditToppedUp           OutboxEventType = "credit_topped_up"
	EventReservationPaymentHeld   OutboxEventType = "reservation_payment_held"
	EventReservationPrepaid       OutboxEventType = "reservation_prepaid"
	EventReservationStatusChanged OutboxEventType = "reservation_status_changed"
	EventPaymentReceived          OutboxEventType = "payment_received"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPaid,
	EventOrderSettled,
	EventBalanceToppedUp,
	EventCreditToppedUp,
	EventReservationPaymentHeld,
	EventReservationPrepaid,
	EventReservationStatusChanged,
	EventPaymentReceived,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
