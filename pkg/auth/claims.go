package auth

import "github.com/golang-jwt/jwt/v5"

// ShopperClaims is the access token the storefront backend issues after login.
type ShopperClaims struct {
	ClientID int64  `json:"client_id"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Shopper is the request-scoped identity derived from the token.
type Shopper struct {
	ClientID int64
	Email    string
}

// IsGuest reports whether the request carried no verified shopper.
func (s *Shopper) IsGuest() bool {
	return s == nil || s.ClientID <= 0
}
