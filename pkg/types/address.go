package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the single shipping address shape used across cart, checkout,
// the saved-address directory and order receipts.
type Address struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number,omitempty"`
	Floor      string `json:"floor,omitempty"`
	Apartment  string `json:"apartment,omitempty"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Comment    string `json:"comment,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (a Address) Normalize() Address {
	return Address{
		FirstName:  strings.TrimSpace(a.FirstName),
		LastName:   strings.TrimSpace(a.LastName),
		Street:     strings.TrimSpace(a.Street),
		Number:     strings.TrimSpace(a.Number),
		Floor:      strings.TrimSpace(a.Floor),
		Apartment:  strings.TrimSpace(a.Apartment),
		City:       strings.TrimSpace(a.City),
		Province:   strings.TrimSpace(a.Province),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Phone:      strings.TrimSpace(a.Phone),
		Comment:    strings.TrimSpace(a.Comment),
	}
}

// StreetLine joins street and number the way carriers print them.
func (a Address) StreetLine() string {
	if a.Number == "" {
		return a.Street
	}
	return a.Street + " " + a.Number
}

// Value stores the address as a JSON document.
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal: %w", err)
	}
	return string(b), nil
}

// Scan decodes a JSON document written by Value.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("address: unmarshal: %w", err)
	}
	return nil
}

// Contact identifies a guest shopper placing an order without an account.
type Contact struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}
