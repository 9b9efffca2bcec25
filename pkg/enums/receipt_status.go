package enums

import "fmt"

// ReceiptStatus tracks the locally cached state of a submitted order.
type ReceiptStatus string

const (
	ReceiptStatusPending   ReceiptStatus = "pending"
	ReceiptStatusConfirmed ReceiptStatus = "confirmed"
)

var validReceiptStatuses = []ReceiptStatus{
	ReceiptStatusPending,
	ReceiptStatusConfirmed,
}

// String implements fmt.Stringer.
func (v ReceiptStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReceiptStatus.
func (v ReceiptStatus) IsValid() bool {
	for _, candidate := range validReceiptStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReceiptStatus converts raw input into a ReceiptStatus.
func ParseReceiptStatus(value string) (ReceiptStatus, error) {
	for _, candidate := range validReceiptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid receipt status %q", value)
}
