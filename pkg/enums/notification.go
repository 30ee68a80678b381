package enums

import "fmt"

// NotificationTopic categorizes notification rows for routing and display.
type NotificationTopic string

const (
	NotificationTopicPaymentReceived          NotificationTopic = "payment_received"
	NotificationTopicReservationReady         NotificationTopic = "reservation_ready"
	NotificationTopicReservationStatusChanged NotificationTopic = "reservation_status_changed"
	NotificationTopicBalanceTopup             NotificationTopic = "balance_topup"
	NotificationTopicCreditTopup              NotificationTopic = "credit_topup"
)

var validNotificationTopics = []NotificationTopic{
	NotificationTopicPaymentReceived,
	NotificationTopicReservationReady,
	NotificationTopicReservationStatusChanged,
	NotificationTopicBalanceTopup,
	NotificationTopicCreditTopup,
}

// IsValid reports whether the value matches the canonical topic enum.
func (t NotificationTopic) IsValid() bool {
	for _, candidate := range validNotificationTopics {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseNotificationTopic converts raw input into NotificationTopic.
func ParseNotificationTopic(value string) (NotificationTopic, error) {
	for _, candidate := range validNotificationTopics {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification topic %q", value)
}
