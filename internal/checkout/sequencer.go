package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agrostore-bff/internal/address"
	"github.com/angelmondragon/agrostore-bff/internal/paymentmethods"
	"github.com/angelmondragon/agrostore-bff/internal/shipping"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

// Draft accumulates what the shopper chose so far.
type Draft struct {
	ShippingMethod  enums.ShippingMethod `json:"shipping_method,omitempty"`
	ShippingCost    *decimal.Decimal     `json:"shipping_cost,omitempty"`
	PostalCode      string               `json:"postal_code,omitempty"`
	ShippingOption  *shipping.Option     `json:"shipping_option,omitempty"`
	PickupPointID   string               `json:"pickup_point_id,omitempty"`
	ShippingAddress *types.Address       `json:"shipping_address,omitempty"`
	SavedAddressID  *int64               `json:"saved_address_id,omitempty"`
	PaymentMethod   enums.PaymentMethod  `json:"payment_method,omitempty"`
	TransferAccount string               `json:"transfer_account,omitempty"`
	Comment         string               `json:"comment,omitempty"`
}

// Cost is the shipping cost to charge; unset counts as zero.
func (d Draft) Cost() decimal.Decimal {
	if d.ShippingCost == nil {
		return decimal.Zero
	}
	return *d.ShippingCost
}

func (d Draft) hasAddress() bool {
	return d.ShippingAddress != nil || d.SavedAddressID != nil
}

func (d Draft) clone() Draft {
	out := d
	if d.ShippingCost != nil {
		c := *d.ShippingCost
		out.ShippingCost = &c
	}
	if d.ShippingOption != nil {
		o := *d.ShippingOption
		o.PickupPoints = append([]shipping.PickupPoint(nil), d.ShippingOption.PickupPoints...)
		out.ShippingOption = &o
	}
	if d.ShippingAddress != nil {
		a := *d.ShippingAddress
		out.ShippingAddress = &a
	}
	if d.SavedAddressID != nil {
		id := *d.SavedAddressID
		out.SavedAddressID = &id
	}
	return out
}

// Sequencer is the checkout wizard of one cart session:
// method -> shipping_cost -> address -> payment -> submit, with pickup and
// coordinate delivery skipping the stops they do not need. It does no I/O.
type Sequencer struct {
	step    enums.CheckoutStep
	history []enums.CheckoutStep
	draft   Draft
	quote   *shipping.Quote
	policy  *paymentmethods.Policy
}

// NewSequencer starts a wizard at the method step.
func NewSequencer(policy *paymentmethods.Policy) *Sequencer {
	return &Sequencer{step: enums.CheckoutStepMethod, policy: policy}
}

func (s *Sequencer) Step() enums.CheckoutStep { return s.step }

// History is the list of steps traversed to reach the current one.
func (s *Sequencer) History() []enums.CheckoutStep {
	return append([]enums.CheckoutStep(nil), s.history...)
}

func (s *Sequencer) Draft() Draft { return s.draft.clone() }

// Quote is the last shipping quote applied, if any.
func (s *Sequencer) Quote() *shipping.Quote { return s.quote }

func (s *Sequencer) advance(next enums.CheckoutStep) {
	s.history = append(s.history, s.step)
	s.step = next
}

func (s *Sequencer) expect(step enums.CheckoutStep, action string) error {
	if s.step != step {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s is only allowed at step %s", action, step)).
			WithDetails(map[string]any{"step": s.step, "expected": step})
	}
	return nil
}

// SelectMethod restarts the flow with method and discards everything
// chosen after it. Allowed from every step, submit included.
func (s *Sequencer) SelectMethod(method enums.ShippingMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
			WithDetails(map[string]string{"shipping_method": "must be one of [home_delivery pickup coordinate_delivery]"})
	}
	comment := s.draft.Comment
	s.draft = Draft{ShippingMethod: method, Comment: comment}
	s.quote = nil
	s.history = nil
	s.step = enums.CheckoutStepMethod

	switch method {
	case enums.ShippingMethodPickup:
		zero := decimal.Zero
		s.draft.ShippingCost = &zero
		s.advance(enums.CheckoutStepPayment)
	case enums.ShippingMethodHomeDelivery:
		s.advance(enums.CheckoutStepShippingCost)
	case enums.ShippingMethodCoordinateDelivery:
		zero := decimal.Zero
		s.draft.ShippingCost = &zero
		s.advance(enums.CheckoutStepAddress)
	}
	return nil
}

// ApplyQuote stores the carrier options for the shopper to choose from.
// Any previously chosen option is discarded.
func (s *Sequencer) ApplyQuote(q *shipping.Quote) error {
	if err := s.expect(enums.CheckoutStepShippingCost, "quoting shipping"); err != nil {
		return err
	}
	if q == nil || strings.TrimSpace(q.PostalCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "postal code is required").
			WithDetails(map[string]string{"postal_code": "is required"})
	}
	s.quote = q
	s.draft.PostalCode = q.PostalCode
	s.draft.ShippingOption = nil
	s.draft.ShippingCost = nil
	s.draft.PickupPointID = ""
	return nil
}

// SelectShippingOption fixes the cost. Options without pickup points go on
// to the address step; options with pickup points wait for SelectPickupPoint.
func (s *Sequencer) SelectShippingOption(optionID string) error {
	if err := s.expect(enums.CheckoutStepShippingCost, "choosing a shipping option"); err != nil {
		return err
	}
	if s.quote == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "request a shipping quote first")
	}
	opt, ok := s.quote.Option(strings.TrimSpace(optionID))
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping option").
			WithDetails(map[string]string{"option_id": "is not part of the current quote"})
	}

	cost := opt.Price
	s.draft.ShippingOption = &opt
	s.draft.ShippingCost = &cost
	s.draft.PickupPointID = ""

	if !opt.HasPickupPoints() {
		s.advance(enums.CheckoutStepAddress)
	}
	return nil
}

// SelectPickupPoint completes an option that is collected at a branch.
// No address is needed afterwards.
func (s *Sequencer) SelectPickupPoint(pointID string) error {
	if err := s.expect(enums.CheckoutStepShippingCost, "choosing a pickup point"); err != nil {
		return err
	}
	opt := s.draft.ShippingOption
	if opt == nil || !opt.HasPickupPoints() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "the selected shipping option has no pickup points")
	}
	point, ok := opt.PickupPoint(strings.TrimSpace(pointID))
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown pickup point").
			WithDetails(map[string]string{"pickup_point_id": "is not offered by the selected option"})
	}
	s.draft.PickupPointID = point.ID
	s.draft.ShippingAddress = nil
	s.draft.SavedAddressID = nil
	s.advance(enums.CheckoutStepPayment)
	return nil
}

// SubmitAddress records a freshly entered delivery address.
func (s *Sequencer) SubmitAddress(addr types.Address) error {
	if err := s.expect(enums.CheckoutStepAddress, "entering an address"); err != nil {
		return err
	}
	clean, err := address.Validate(addr)
	if err != nil {
		return err
	}
	s.draft.ShippingAddress = &clean
	s.draft.SavedAddressID = nil
	s.advance(enums.CheckoutStepPayment)
	return nil
}

// SelectSavedAddress records a reference into the shopper's directory.
// addr is kept for display and the receipt only.
func (s *Sequencer) SelectSavedAddress(id int64, addr types.Address) error {
	if err := s.expect(enums.CheckoutStepAddress, "selecting a saved address"); err != nil {
		return err
	}
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "saved address id must be positive")
	}
	ref := id
	a := addr.Normalize()
	s.draft.SavedAddressID = &ref
	s.draft.ShippingAddress = &a
	s.advance(enums.CheckoutStepPayment)
	return nil
}

// SelectPayment chooses how to pay. Transfers need one of the configured
// accounts; a missing or unknown account keeps the flow at payment.
func (s *Sequencer) SelectPayment(method enums.PaymentMethod, account, comment string) error {
	if err := s.expect(enums.CheckoutStepPayment, "choosing a payment method"); err != nil {
		return err
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]string{"payment_method": fmt.Sprintf("must be one of %v", enums.PaymentMethods())})
	}

	account = strings.TrimSpace(account)
	if method.RequiresAccount() {
		if account == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "select a destination account for the transfer").
				WithDetails(map[string]string{"transfer_account": "is required"})
		}
		if _, ok := s.policy.Account(account); !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown transfer account").
				WithDetails(map[string]string{"transfer_account": "is not a configured account"})
		}
	} else {
		account = ""
	}

	s.draft.PaymentMethod = method
	s.draft.TransferAccount = account
	s.draft.Comment = strings.TrimSpace(comment)
	s.advance(enums.CheckoutStepSubmit)
	return nil
}

// Back returns to the step visited right before the current one.
func (s *Sequencer) Back() error {
	if len(s.history) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first step")
	}
	last := len(s.history) - 1
	s.step = s.history[last]
	s.history = s.history[:last]
	return nil
}

// Ready reports whether the draft can be turned into an order.
func (s *Sequencer) Ready() error {
	if s.step != enums.CheckoutStepSubmit {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not complete").
			WithDetails(map[string]any{"step": s.step})
	}

	d := s.draft
	missing := map[string]string{}
	switch d.ShippingMethod {
	case enums.ShippingMethodPickup:
	case enums.ShippingMethodHomeDelivery:
		if d.ShippingOption == nil || d.ShippingCost == nil {
			missing["shipping_option"] = "is required"
		} else if d.ShippingOption.HasPickupPoints() {
			if d.PickupPointID == "" {
				missing["pickup_point_id"] = "is required"
			}
		} else if !d.hasAddress() {
			missing["shipping_address"] = "is required"
		}
	case enums.ShippingMethodCoordinateDelivery:
		if !d.hasAddress() {
			missing["shipping_address"] = "is required"
		}
	default:
		missing["shipping_method"] = "is required"
	}

	if !d.PaymentMethod.IsValid() {
		missing["payment_method"] = "is required"
	} else if d.PaymentMethod.RequiresAccount() {
		if _, ok := s.policy.Account(d.TransferAccount); !ok {
			missing["transfer_account"] = "is required"
		}
	}

	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout draft is incomplete").WithDetails(missing)
	}
	return nil
}
