package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agrostore-bff/internal/paymentmethods"
	"github.com/angelmondragon/agrostore-bff/internal/shipping"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

func testPolicy(t *testing.T) *paymentmethods.Policy {
	t.Helper()
	p, err := paymentmethods.ParsePolicy("cash:1:0,mercadopago:2:0,transfer:3:10", "galicia|Banco Galicia|Agro SA|0070000000000000000001|agro.galicia")
	require.NoError(t, err)
	return p
}

func validAddress() types.Address {
	return types.Address{
		FirstName:  "Ana",
		LastName:   "Pérez",
		Street:     "Av. San Martín",
		Number:     "1200",
		City:       "Pergamino",
		Province:   "Buenos Aires",
		PostalCode: "2700",
		Phone:      "2477000000",
	}
}

func testQuote() *shipping.Quote {
	return &shipping.Quote{
		PostalCode:  "2700",
		BestCarrier: "Andreani",
		BestPrice:   decimal.NewFromInt(4500),
		Options: []shipping.Option{
			{ID: "door", Carrier: "Andreani", ServiceType: "standard", DeliveryDays: 3, Price: decimal.NewFromInt(4500)},
			{
				ID: "branch", Carrier: "OCA", ServiceType: "sucursal", DeliveryDays: 4, Price: decimal.NewFromInt(3100),
				PickupPoints: []shipping.PickupPoint{{ID: "oca-12", Description: "OCA Pergamino", Address: "Merced 900"}},
			},
		},
	}
}

func atAddressStep(t *testing.T, seq *Sequencer) {
	t.Helper()
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodHomeDelivery))
	require.NoError(t, seq.ApplyQuote(testQuote()))
	require.NoError(t, seq.SelectShippingOption("door"))
	require.Equal(t, enums.CheckoutStepAddress, seq.Step())
}

func TestPickupGoesStraightToPayment(t *testing.T) {
	setups := map[string]func(*testing.T, *Sequencer){
		"fresh": func(*testing.T, *Sequencer) {},
		"after address": func(t *testing.T, seq *Sequencer) {
			atAddressStep(t, seq)
			require.NoError(t, seq.SubmitAddress(validAddress()))
		},
		"after coordinate": func(t *testing.T, seq *Sequencer) {
			require.NoError(t, seq.SelectMethod(enums.ShippingMethodCoordinateDelivery))
		},
		"ready to submit": func(t *testing.T, seq *Sequencer) {
			atAddressStep(t, seq)
			require.NoError(t, seq.SubmitAddress(validAddress()))
			require.NoError(t, seq.SelectPayment(enums.PaymentMethodCash, "", ""))
		},
		"mid quote": func(t *testing.T, seq *Sequencer) {
			require.NoError(t, seq.SelectMethod(enums.ShippingMethodHomeDelivery))
			require.NoError(t, seq.ApplyQuote(testQuote()))
			require.NoError(t, seq.SelectShippingOption("branch"))
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			seq := NewSequencer(testPolicy(t))
			setup(t, seq)

			require.NoError(t, seq.SelectMethod(enums.ShippingMethodPickup))
			d := seq.Draft()
			assert.Equal(t, enums.CheckoutStepPayment, seq.Step())
			assert.True(t, d.Cost().IsZero())
			assert.Nil(t, d.ShippingAddress)
			assert.Nil(t, d.SavedAddressID)
			assert.Nil(t, d.ShippingOption)
			assert.Empty(t, d.PickupPointID)
			assert.Equal(t, []enums.CheckoutStep{enums.CheckoutStepMethod}, seq.History())
		})
	}
}

func TestHomeDeliveryWithoutPickupPointsNeedsAddress(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	atAddressStep(t, seq)
	assert.True(t, seq.Draft().Cost().Equal(decimal.NewFromInt(4500)))

	require.NoError(t, seq.SubmitAddress(validAddress()))
	assert.Equal(t, enums.CheckoutStepPayment, seq.Step())
}

func TestOptionWithPickupPointsSkipsAddress(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodHomeDelivery))
	require.NoError(t, seq.ApplyQuote(testQuote()))

	require.NoError(t, seq.SelectShippingOption("branch"))
	assert.Equal(t, enums.CheckoutStepShippingCost, seq.Step())

	err := seq.SelectPickupPoint("nowhere")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.CheckoutStepShippingCost, seq.Step())

	require.NoError(t, seq.SelectPickupPoint("oca-12"))
	assert.Equal(t, enums.CheckoutStepPayment, seq.Step())
	assert.Equal(t, "oca-12", seq.Draft().PickupPointID)
	assert.True(t, seq.Draft().Cost().Equal(decimal.NewFromInt(3100)))

	require.NoError(t, seq.SelectPayment(enums.PaymentMethodCash, "", ""))
	assert.NoError(t, seq.Ready())
}

func TestPickupPointRequiresOptionWithPoints(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodHomeDelivery))
	require.NoError(t, seq.ApplyQuote(testQuote()))

	err := seq.SelectPickupPoint("oca-12")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCoordinateDeliveryNeedsAddressButNoCost(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodCoordinateDelivery))
	assert.Equal(t, enums.CheckoutStepAddress, seq.Step())
	assert.True(t, seq.Draft().Cost().IsZero())

	bad := validAddress()
	bad.City = "  "
	err := seq.SubmitAddress(bad)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.CheckoutStepAddress, seq.Step())

	require.NoError(t, seq.SelectSavedAddress(77, validAddress()))
	assert.Equal(t, int64(77), *seq.Draft().SavedAddressID)
}

func TestTransferRequiresAccount(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodPickup))

	err := seq.SelectPayment(enums.PaymentMethodTransfer, "", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.CheckoutStepPayment, seq.Step())

	err = seq.SelectPayment(enums.PaymentMethodTransfer, "unknown", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.CheckoutStepPayment, seq.Step())

	require.NoError(t, seq.SelectPayment(enums.PaymentMethodTransfer, "galicia", " llamar antes "))
	assert.Equal(t, enums.CheckoutStepSubmit, seq.Step())
	assert.Equal(t, "galicia", seq.Draft().TransferAccount)
	assert.Equal(t, "llamar antes", seq.Draft().Comment)
}

func TestTransferWithoutConfiguredAccountsIsRejected(t *testing.T) {
	seq := NewSequencer(paymentmethods.NewPolicy(nil, nil))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodPickup))
	err := seq.SelectPayment(enums.PaymentMethodTransfer, "galicia", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBackReturnsToTraversedStep(t *testing.T) {
	seq := NewSequencer(testPolicy(t))

	err := seq.Back()
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	atAddressStep(t, seq)
	require.NoError(t, seq.SubmitAddress(validAddress()))
	require.NoError(t, seq.SelectPayment(enums.PaymentMethodCash, "", ""))
	assert.Equal(t, enums.CheckoutStepSubmit, seq.Step())

	want := []enums.CheckoutStep{
		enums.CheckoutStepPayment,
		enums.CheckoutStepAddress,
		enums.CheckoutStepShippingCost,
		enums.CheckoutStepMethod,
	}
	for _, step := range want {
		require.NoError(t, seq.Back())
		assert.Equal(t, step, seq.Step())
	}
	assert.Error(t, seq.Back())
}

func TestBackFromPickupPaymentSkipsOverShippingSteps(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodPickup))
	require.NoError(t, seq.Back())
	assert.Equal(t, enums.CheckoutStepMethod, seq.Step())
}

func TestSelectMethodAtSubmitRestartsFlow(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	atAddressStep(t, seq)
	require.NoError(t, seq.SubmitAddress(validAddress()))
	require.NoError(t, seq.SelectPayment(enums.PaymentMethodTransfer, "galicia", ""))
	require.Equal(t, enums.CheckoutStepSubmit, seq.Step())

	require.NoError(t, seq.SelectMethod(enums.ShippingMethodPickup))
	d := seq.Draft()
	assert.Equal(t, enums.CheckoutStepPayment, seq.Step())
	assert.True(t, d.Cost().IsZero())
	assert.Nil(t, d.ShippingAddress)
	assert.Empty(t, d.PaymentMethod)
	assert.Equal(t, []enums.CheckoutStep{enums.CheckoutStepMethod}, seq.History())
}

func TestWrongStepIsStateConflict(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	assert.True(t, pkgerrors.IsCode(seq.SubmitAddress(validAddress()), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(seq.SelectPayment(enums.PaymentMethodCash, "", ""), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(seq.SelectShippingOption("door"), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(seq.Ready(), pkgerrors.CodeStateConflict))
}

func TestApplyQuoteDiscardsPreviousOption(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	require.NoError(t, seq.SelectMethod(enums.ShippingMethodHomeDelivery))
	require.NoError(t, seq.ApplyQuote(testQuote()))
	require.NoError(t, seq.SelectShippingOption("branch"))

	require.NoError(t, seq.ApplyQuote(testQuote()))
	assert.Nil(t, seq.Draft().ShippingOption)
	assert.Nil(t, seq.Draft().ShippingCost)

	err := seq.ApplyQuote(&shipping.Quote{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDraftIsCopied(t *testing.T) {
	seq := NewSequencer(testPolicy(t))
	atAddressStep(t, seq)
	require.NoError(t, seq.SubmitAddress(validAddress()))

	d := seq.Draft()
	d.ShippingAddress.City = "Rosario"
	*d.ShippingCost = decimal.NewFromInt(1)

	assert.Equal(t, "Pergamino", seq.Draft().ShippingAddress.City)
	assert.True(t, seq.Draft().Cost().Equal(decimal.NewFromInt(4500)))
}
