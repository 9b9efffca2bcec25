package checkout

import (
	"strings"

	"github.com/angelmondragon/agrostore-bff/internal/cart"
	"github.com/angelmondragon/agrostore-bff/internal/orders"
	"github.com/angelmondragon/agrostore-bff/internal/paymentmethods"
	"github.com/angelmondragon/agrostore-bff/pkg/auth"
	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

const paymentStatusPending = "pending"

type orderInput struct {
	shopper *auth.Shopper
	guest   *types.Contact
	lines   []cart.Line
	draft   Draft
	policy  *paymentmethods.Policy
	channel string
}

// buildOrderRequest assembles the order-creation payload. Identity is the
// client id or the guest block, never both; the destination is the saved
// address id or the raw shipping fields, never both.
func buildOrderRequest(in orderInput) backend.OrderRequest {
	d := in.draft
	req := backend.OrderRequest{
		Items:           toOrderItems(in.lines),
		PaymentMethod:   d.PaymentMethod,
		PaymentStatus:   paymentStatusPending,
		Channel:         in.channel,
		Comment:         d.Comment,
		TransferAccount: d.TransferAccount,
		ShippingMethod:  d.ShippingMethod.String(),
		PickupPointID:   d.PickupPointID,
		ShippingPrice:   d.Cost(),
	}

	if discount, ok := in.policy.DiscountFor(d.PaymentMethod); ok {
		req.DiscountID = discount.ID
		req.DiscountPercent = discount.Percent
	}

	if in.shopper != nil && !in.shopper.IsGuest() {
		id := in.shopper.ClientID
		req.ClientID = &id
	} else if in.guest != nil {
		req.Guest = toOrderGuest(*in.guest)
	}

	if d.ShippingOption != nil {
		req.ShippingOption = d.ShippingOption.ID
	}

	// pickup points and branch pickup do not ship anywhere
	if d.PickupPointID == "" {
		switch {
		case d.SavedAddressID != nil:
			id := *d.SavedAddressID
			req.SavedAddressID = &id
		case d.ShippingAddress != nil:
			req.Shipping = toOrderShipping(*d.ShippingAddress)
		}
	}
	return req
}

func toOrderShipping(a types.Address) *backend.OrderShipping {
	a = a.Normalize()
	return &backend.OrderShipping{
		Recipient: strings.TrimSpace(a.FirstName + " " + a.LastName),
		Address:   a.StreetLine(),
		Floor:     a.Floor,
		Apartment: a.Apartment,
		City:      a.City,
		Province:  a.Province,
		ZipCode:   a.PostalCode,
		Phone:     a.Phone,
		Notes:     a.Comment,
	}
}

func toOrderGuest(c types.Contact) *backend.OrderGuest {
	return &backend.OrderGuest{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
	}
}

func toOrderItems(lines []cart.Line) []backend.OrderItem {
	out := make([]backend.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := backend.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity}
		if l.VariantID != nil {
			v := *l.VariantID
			item.VariantID = &v
		}
		out = append(out, item)
	}
	return out
}

func toReceiptItems(lines []cart.Line) []orders.ReceiptItem {
	out := make([]orders.ReceiptItem, 0, len(lines))
	for _, l := range lines {
		item := orders.ReceiptItem{
			ProductID:   l.ProductID,
			DisplayName: l.DisplayName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			ImageRef:    l.ImageRef,
		}
		if l.VariantID != nil {
			v := *l.VariantID
			item.VariantID = &v
		}
		out = append(out, item)
	}
	return out
}
