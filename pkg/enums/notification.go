package enums

import "fmt"

// NotificationKind identifies the completion notification sent to a customer.
type NotificationKind string

const (
	NotificationPickupComplete   NotificationKind = "pickup_complete"
	NotificationDeliveryComplete NotificationKind = "delivery_complete"
)

var validNotificationKinds = []NotificationKind{
	NotificationPickupComplete,
	NotificationDeliveryComplete,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationKindForService maps a completed visit's service type to its notification.
func NotificationKindForService(serviceType ServiceType) (NotificationKind, error) {
	switch serviceType {
	case ServiceTypePickup:
		return NotificationPickupComplete, nil
	case ServiceTypeDelivery:
		return NotificationDeliveryComplete, nil
	default:
		return "", fmt.Errorf("no notification kind for service type %q", serviceType)
	}
}
