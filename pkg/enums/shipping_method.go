package enums

import "fmt"

// ShippingMethod describes how an order reaches the shopper.
type ShippingMethod string

const (
	ShippingMethodHomeDelivery       ShippingMethod = "home_delivery"
	ShippingMethodPickup             ShippingMethod = "pickup"
	ShippingMethodCoordinateDelivery ShippingMethod = "coordinate_delivery"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodHomeDelivery,
	ShippingMethodPickup,
	ShippingMethodCoordinateDelivery,
}

// String implements fmt.Stringer.
func (v ShippingMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ShippingMethod.
func (v ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
