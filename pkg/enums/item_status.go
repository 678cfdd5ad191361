package enums

import "fmt"

// ItemStatus tracks where a customer's physical item currently lives.
type ItemStatus string

const (
	ItemStatusHome      ItemStatus = "home"
	ItemStatusScheduled ItemStatus = "scheduled"
	ItemStatusStored    ItemStatus = "stored"
)

var validItemStatuses = []ItemStatus{
	ItemStatusHome,
	ItemStatusScheduled,
	ItemStatusStored,
}

// String implements fmt.Stringer.
func (i ItemStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemStatus.
func (i ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
