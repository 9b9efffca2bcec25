package checkout

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agrostore-bff/internal/cart"
	"github.com/angelmondragon/agrostore-bff/pkg/auth"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

func testLines() []cart.Line {
	v := int64(31)
	return []cart.Line{
		{ProductID: 1, DisplayName: "Semilla de maíz", UnitPrice: decimal.NewFromInt(85000), AvailableStock: 10, Quantity: 2},
		{ProductID: 3, VariantID: &v, DisplayName: "Fertilizante 25kg", UnitPrice: decimal.NewFromInt(52000), AvailableStock: 2, Quantity: 1},
	}
}

func TestOrderRequestForClientWithSavedAddress(t *testing.T) {
	saved := int64(44)
	addr := validAddress()
	cost := decimal.NewFromInt(4500)
	opt := testQuote().Options[0]

	req := buildOrderRequest(orderInput{
		shopper: &auth.Shopper{ClientID: 12, Email: "ana@example.com"},
		guest:   &types.Contact{FirstName: "ignored"},
		lines:   testLines(),
		draft: Draft{
			ShippingMethod:  enums.ShippingMethodHomeDelivery,
			ShippingCost:    &cost,
			ShippingOption:  &opt,
			SavedAddressID:  &saved,
			ShippingAddress: &addr,
			PaymentMethod:   enums.PaymentMethodTransfer,
			TransferAccount: "galicia",
		},
		policy:  testPolicy(t),
		channel: "web",
	})

	require.NotNil(t, req.ClientID)
	assert.Equal(t, int64(12), *req.ClientID)
	assert.Nil(t, req.Guest)
	require.NotNil(t, req.SavedAddressID)
	assert.Equal(t, int64(44), *req.SavedAddressID)
	assert.Nil(t, req.Shipping, "saved address id and raw shipping fields are exclusive")
	assert.Equal(t, 3, req.DiscountID)
	assert.True(t, req.DiscountPercent.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "pending", req.PaymentStatus)
	assert.Equal(t, "web", req.Channel)
	assert.Equal(t, "door", req.ShippingOption)
	assert.True(t, req.ShippingPrice.Equal(cost))
	require.Len(t, req.Items, 2)
	assert.Nil(t, req.Items[0].VariantID)
	assert.Equal(t, int64(31), *req.Items[1].VariantID)
}

func TestOrderRequestForGuestWithRawAddress(t *testing.T) {
	addr := validAddress()
	addr.Floor = "2"
	addr.Apartment = "B"
	addr.Comment = "portón verde"
	zero := decimal.Zero

	req := buildOrderRequest(orderInput{
		guest: &types.Contact{FirstName: " Ana ", LastName: "Pérez", Email: "ana@example.com", Phone: "2477000000"},
		lines: testLines(),
		draft: Draft{
			ShippingMethod:  enums.ShippingMethodCoordinateDelivery,
			ShippingCost:    &zero,
			ShippingAddress: &addr,
			PaymentMethod:   enums.PaymentMethodCash,
		},
		policy:  testPolicy(t),
		channel: "web",
	})

	assert.Nil(t, req.ClientID)
	require.NotNil(t, req.Guest)
	assert.Equal(t, "Ana", req.Guest.FirstName)
	assert.Nil(t, req.SavedAddressID)
	require.NotNil(t, req.Shipping)
	assert.Equal(t, "Ana Pérez", req.Shipping.Recipient)
	assert.Equal(t, "Av. San Martín 1200", req.Shipping.Address)
	assert.Equal(t, "2", req.Shipping.Floor)
	assert.Equal(t, "B", req.Shipping.Apartment)
	assert.Equal(t, "2700", req.Shipping.ZipCode)
	assert.Equal(t, "portón verde", req.Shipping.Notes)
	assert.True(t, req.ShippingPrice.IsZero())
	assert.Equal(t, 1, req.DiscountID)
	assert.Empty(t, req.TransferAccount)
}

func TestOrderRequestForPickupPointHasNoShipping(t *testing.T) {
	q := testQuote()
	opt := q.Options[1]
	cost := opt.Price

	req := buildOrderRequest(orderInput{
		shopper: &auth.Shopper{ClientID: 5},
		lines:   testLines(),
		draft: Draft{
			ShippingMethod: enums.ShippingMethodHomeDelivery,
			ShippingCost:   &cost,
			ShippingOption: &opt,
			PickupPointID:  "oca-12",
			PaymentMethod:  enums.PaymentMethodMercadoPago,
		},
		policy: testPolicy(t),
	})

	assert.Equal(t, "oca-12", req.PickupPointID)
	assert.Nil(t, req.Shipping)
	assert.Nil(t, req.SavedAddressID)
	assert.Equal(t, "branch", req.ShippingOption)
}

func TestOrderRequestWireShape(t *testing.T) {
	zero := decimal.Zero
	req := buildOrderRequest(orderInput{
		shopper: &auth.Shopper{ClientID: 5},
		lines:   testLines()[:1],
		draft: Draft{
			ShippingMethod: enums.ShippingMethodPickup,
			ShippingCost:   &zero,
			PaymentMethod:  enums.PaymentMethodCash,
		},
		policy:  testPolicy(t),
		channel: "web",
	})

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(5), body["client_id"])
	assert.Equal(t, "pickup", body["shipping_method"])
	assert.Equal(t, float64(1), body["payment_discount_id"])
	assert.NotContains(t, body, "guest")
	assert.NotContains(t, body, "shipping")
	assert.NotContains(t, body, "shipping_address_id")
}

func TestReceiptItemsCopyVariant(t *testing.T) {
	lines := testLines()
	items := toReceiptItems(lines)
	require.Len(t, items, 2)
	*lines[1].VariantID = 99
	assert.Equal(t, int64(31), *items[1].VariantID)
	assert.Equal(t, "Fertilizante 25kg", items[1].DisplayName)
}
