package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a shopper settles an order.
type PaymentMethod string

const (
	PaymentMethodTransfer    PaymentMethod = "transfer"
	PaymentMethodMercadoPago PaymentMethod = "mercadopago"
	PaymentMethodCash        PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodTransfer,
	PaymentMethodMercadoPago,
	PaymentMethodCash,
}

// PaymentMethods returns every accepted method in display order.
func PaymentMethods() []PaymentMethod {
	return append([]PaymentMethod(nil), validPaymentMethods...)
}

func (v PaymentMethod) String() string {
	return string(v)
}

func (v PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// RequiresAccount reports whether the shopper must pick a destination bank
// account for this method.
func (v PaymentMethod) RequiresAccount() bool {
	return v == PaymentMethodTransfer
}

// ParsePaymentMethod accepts the wire value case-insensitively.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid payment method %q, want one of %v", value, validPaymentMethods)
	}
	return m, nil
}
