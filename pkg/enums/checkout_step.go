package enums

import "fmt"

// CheckoutStep names a stop in the checkout wizard.
type CheckoutStep string

const (
	CheckoutStepMethod       CheckoutStep = "method"
	CheckoutStepShippingCost CheckoutStep = "shipping_cost"
	CheckoutStepAddress      CheckoutStep = "address"
	CheckoutStepPayment      CheckoutStep = "payment"
	CheckoutStepSubmit       CheckoutStep = "submit"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepMethod,
	CheckoutStepShippingCost,
	CheckoutStepAddress,
	CheckoutStepPayment,
	CheckoutStepSubmit,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are accepted besides Back.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepSubmit
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
