package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agrostore-bff/internal/address"
	"github.com/angelmondragon/agrostore-bff/internal/cart"
	"github.com/angelmondragon/agrostore-bff/internal/orders"
	"github.com/angelmondragon/agrostore-bff/internal/paymentmethods"
	"github.com/angelmondragon/agrostore-bff/internal/shipping"
	"github.com/angelmondragon/agrostore-bff/pkg/auth"
	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
	"github.com/angelmondragon/agrostore-bff/pkg/metrics"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
	"github.com/angelmondragon/agrostore-bff/pkg/validation"
)

// StateView is the wizard as served to the storefront.
type StateView struct {
	Step            enums.CheckoutStep           `json:"step"`
	History         []enums.CheckoutStep         `json:"history"`
	Draft           Draft                        `json:"draft"`
	Quote           *shipping.Quote              `json:"quote,omitempty"`
	PaymentOptions  []paymentmethods.Option      `json:"payment_options"`
	TransferTargets []paymentmethods.BankAccount `json:"transfer_accounts"`
	Cart            cart.View                    `json:"cart"`
	DiscountPercent decimal.Decimal              `json:"discount_percent"`
	EstimatedTotal  decimal.Decimal              `json:"estimated_total"`
}

// SubmitRequest is the identity and contact data of a submission.
type SubmitRequest struct {
	SessionID string
	Shopper   *auth.Shopper
	Guest     *types.Contact
}

// Service drives the checkout wizard of every cart session.
type Service interface {
	State(ctx context.Context, sessionID string) (*StateView, error)
	SelectMethod(ctx context.Context, sessionID string, method enums.ShippingMethod) (*StateView, error)
	QuoteShipping(ctx context.Context, sessionID, postalCode string) (*StateView, error)
	SelectShippingOption(ctx context.Context, sessionID, optionID string) (*StateView, error)
	SelectPickupPoint(ctx context.Context, sessionID, pointID string) (*StateView, error)
	SavedAddresses(ctx context.Context, shopper *auth.Shopper) ([]address.Saved, error)
	SubmitAddress(ctx context.Context, sessionID string, shopper *auth.Shopper, addr types.Address, save bool) (*StateView, error)
	SelectSavedAddress(ctx context.Context, sessionID string, shopper *auth.Shopper, addressID int64) (*StateView, error)
	SelectPayment(ctx context.Context, sessionID string, method enums.PaymentMethod, account, comment string) (*StateView, error)
	Back(ctx context.Context, sessionID string) (*StateView, error)
	Reset(ctx context.Context, sessionID string) error
	Submit(ctx context.Context, req SubmitRequest) (*orders.Receipt, error)
}

type cartStore interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	RemoveOrdered(ctx context.Context, sessionID string, ordered []cart.Line) (*cart.Cart, error)
}

type orderCreator interface {
	CreateOrder(ctx context.Context, req backend.OrderRequest) (*backend.OrderResponse, error)
}

type receiptLog interface {
	Append(ctx context.Context, in orders.AppendInput) (*orders.Receipt, error)
}

// Deps are the collaborators of the checkout service.
type Deps struct {
	Carts     cartStore
	Shipping  shipping.Service
	Addresses address.Service
	Orders    orderCreator
	Receipts  receiptLog
	Policy    *paymentmethods.Policy
	Drafts    *DraftStore
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Channel   string
}

type service struct {
	carts     cartStore
	shipping  shipping.Service
	addresses address.Service
	orders    orderCreator
	receipts  receiptLog
	policy    *paymentmethods.Policy
	drafts    *DraftStore
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	channel   string
	now       func() time.Time
}

func NewService(deps Deps) (Service, error) {
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Shipping == nil {
		return nil, fmt.Errorf("shipping service required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if deps.Receipts == nil {
		return nil, fmt.Errorf("receipt service required")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("payment policy required")
	}
	drafts := deps.Drafts
	if drafts == nil {
		drafts = NewDraftStore(deps.Policy, 0)
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		carts:     deps.Carts,
		shipping:  deps.Shipping,
		addresses: deps.Addresses,
		orders:    deps.Orders,
		receipts:  deps.Receipts,
		policy:    deps.Policy,
		drafts:    drafts,
		metrics:   deps.Metrics,
		logg:      logg,
		channel:   deps.Channel,
		now:       time.Now,
	}, nil
}

func (s *service) State(ctx context.Context, sessionID string) (*StateView, error) {
	return s.view(ctx, sessionID)
}

func (s *service) SelectMethod(ctx context.Context, sessionID string, method enums.ShippingMethod) (*StateView, error) {
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.SelectMethod(method)
	})
}

// QuoteShipping asks the carrier backend for options to postalCode. The
// quote is fetched outside the draft lock and applied afterwards.
func (s *service) QuoteShipping(ctx context.Context, sessionID, postalCode string) (*StateView, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required").
			WithDetails(map[string]string{"postal_code": "is required"})
	}

	var step enums.CheckoutStep
	if err := s.drafts.View(sessionID, func(seq *Sequencer) { step = seq.Step() }); err != nil {
		return nil, err
	}
	if step != enums.CheckoutStepShippingCost {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping quotes are only available for home delivery").
			WithDetails(map[string]any{"step": step})
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	quote, err := s.shipping.Quote(ctx, postalCode, c.Lines)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.ApplyQuote(quote)
	})
}

func (s *service) SelectShippingOption(ctx context.Context, sessionID, optionID string) (*StateView, error) {
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.SelectShippingOption(optionID)
	})
}

func (s *service) SelectPickupPoint(ctx context.Context, sessionID, pointID string) (*StateView, error) {
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.SelectPickupPoint(pointID)
	})
}

func (s *service) SavedAddresses(ctx context.Context, shopper *auth.Shopper) ([]address.Saved, error) {
	if shopper.IsGuest() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use saved addresses")
	}
	return s.addresses.List(ctx, shopper.ClientID)
}

// SubmitAddress records addr for delivery. With save set, a signed in
// shopper's address is also stored in their directory; a failure to store
// it is logged and does not block the checkout.
func (s *service) SubmitAddress(ctx context.Context, sessionID string, shopper *auth.Shopper, addr types.Address, save bool) (*StateView, error) {
	clean, err := address.Validate(addr)
	if err != nil {
		return nil, err
	}
	if save && shopper.IsGuest() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to save addresses")
	}

	v, err := s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.SubmitAddress(clean)
	})
	if err != nil {
		return nil, err
	}

	if save {
		if _, err := s.addresses.Create(ctx, shopper.ClientID, clean); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.address_save_failed")
		}
	}
	return v, nil
}

func (s *service) SelectSavedAddress(ctx context.Context, sessionID string, shopper *auth.Shopper, addressID int64) (*StateView, error) {
	if shopper.IsGuest() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use saved addresses")
	}
	saved, err := s.addresses.Get(ctx, shopper.ClientID, addressID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.SelectSavedAddress(saved.ID, saved.Address)
	})
}

func (s *service) SelectPayment(ctx context.Context, sessionID string, method enums.PaymentMethod, account, comment string) (*StateView, error) {
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.SelectPayment(method, account, comment)
	})
}

func (s *service) Back(ctx context.Context, sessionID string) (*StateView, error) {
	return s.transition(ctx, sessionID, func(seq *Sequencer) error {
		return seq.Back()
	})
}

func (s *service) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	s.drafts.Drop(sessionID)
	s.logg.Debug(ctx, "checkout.reset")
	return nil
}

// Submit places the order. Only one submission per session runs at a
// time. On failure the cart and the draft are left untouched so the shopper
// can retry.
func (s *service) Submit(ctx context.Context, req SubmitRequest) (*orders.Receipt, error) {
	guest := req.Shopper.IsGuest()
	if guest {
		if req.Guest == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest contact is required").
				WithDetails(map[string]string{"guest": "is required"})
		}
		if err := validation.Struct(*req.Guest); err != nil {
			return nil, err
		}
	}

	draft, finish, err := s.drafts.BeginSubmit(req.SessionID)
	if err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, err
	}
	success := false
	defer func() { finish(success) }()

	c, err := s.carts.Get(ctx, req.SessionID)
	if err != nil {
		s.metrics.IncSubmission("failure")
		return nil, err
	}
	if c.IsEmpty() {
		s.metrics.IncSubmission("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	payload := buildOrderRequest(orderInput{
		shopper: req.Shopper,
		guest:   req.Guest,
		lines:   c.Lines,
		draft:   draft,
		policy:  s.policy,
		channel: s.channel,
	})

	created, err := s.orders.CreateOrder(ctx, payload)
	if err != nil {
		s.metrics.IncSubmission("failure")
		s.logg.Error(ctx, "checkout.order_failed", err)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	success = true
	s.metrics.IncSubmission("success")

	in := s.appendInput(req, c, draft, payload, created)
	receipt, err := s.receipts.Append(ctx, in)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", created.ID), "checkout.receipt_append_failed", err)
		receipt = orders.BuildReceipt(in, s.now().UTC())
	}

	if _, err := s.carts.RemoveOrdered(ctx, req.SessionID, c.Lines); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", created.ID), "checkout.cart_clear_failed", err)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":        created.ID,
		"order_number":    created.OrderNumber,
		"shipping_method": draft.ShippingMethod,
		"payment_method":  draft.PaymentMethod,
	})
	s.logg.Info(ctx, "checkout.order_submitted")
	return receipt, nil
}

func (s *service) appendInput(req SubmitRequest, c *cart.Cart, d Draft, payload backend.OrderRequest, created *backend.OrderResponse) orders.AppendInput {
	subtotal := c.Total()
	return orders.AppendInput{
		OrderID:         created.ID,
		OrderNumber:     created.OrderNumber,
		SessionID:       req.SessionID,
		ClientID:        payload.ClientID,
		Items:           toReceiptItems(c.Lines),
		Subtotal:        subtotal,
		ShippingCost:    d.Cost(),
		DiscountPercent: payload.DiscountPercent,
		Total:           s.policy.ApplyDiscount(d.PaymentMethod, subtotal).Add(d.Cost()),
		ShippingMethod:  d.ShippingMethod,
		ShippingAddress: d.ShippingAddress,
		SavedAddressID:  d.SavedAddressID,
		PickupPointID:   d.PickupPointID,
		PaymentMethod:   d.PaymentMethod,
	}
}

func (s *service) transition(ctx context.Context, sessionID string, fn func(*Sequencer) error) (*StateView, error) {
	var step enums.CheckoutStep
	err := s.drafts.With(sessionID, func(seq *Sequencer) error {
		before := seq.Step()
		if err := fn(seq); err != nil {
			return err
		}
		if seq.Step() != before {
			step = seq.Step()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if step != "" {
		s.metrics.IncTransition(step.String())
		s.logg.Debug(s.logg.WithField(ctx, "step", step), "checkout.step_entered")
	}
	return s.view(ctx, sessionID)
}

func (s *service) view(ctx context.Context, sessionID string) (*StateView, error) {
	v := &StateView{
		PaymentOptions:  s.policy.Options(),
		TransferTargets: s.policy.Accounts(),
	}
	err := s.drafts.View(sessionID, func(seq *Sequencer) {
		v.Step = seq.Step()
		v.History = seq.History()
		v.Draft = seq.Draft()
		v.Quote = seq.Quote()
	})
	if err != nil {
		return nil, err
	}
	if v.History == nil {
		v.History = []enums.CheckoutStep{}
	}
	if v.TransferTargets == nil {
		v.TransferTargets = []paymentmethods.BankAccount{}
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	v.Cart = c.View()

	subtotal := v.Cart.Total
	if d, ok := s.policy.DiscountFor(v.Draft.PaymentMethod); ok {
		v.DiscountPercent = d.Percent
	}
	v.EstimatedTotal = s.policy.ApplyDiscount(v.Draft.PaymentMethod, subtotal).Add(v.Draft.Cost())
	return v, nil
}
