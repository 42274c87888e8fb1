package shipment

import "fmt"

// Status is the closed set of delivery states a shipment can be in.
type Status string

const (
	StatusReadyForPickup   Status = "ready_for_pickup"
	StatusOutForDelivery   Status = "out_for_delivery"
	StatusDelivered        Status = "delivered"
	StatusFailedAttempt    Status = "failed_attempt"
	StatusReturnedToSender Status = "returned_to_sender"
	StatusLost             Status = "lost"
	StatusDamaged          Status = "damaged"
)

var statuses = map[Status]bool{
	StatusReadyForPickup:   true,
	StatusOutForDelivery:   true,
	StatusDelivered:        true,
	StatusFailedAttempt:    true,
	StatusReturnedToSender: true,
	StatusLost:             true,
	StatusDamaged:          true,
}

// ParseStatus validates a status string against the closed set.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !statuses[st] {
		return "", fmt.Errorf("unknown shipment status %q", s)
	}
	return st, nil
}
