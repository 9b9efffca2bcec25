package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

const defaultListLimit = 20

// Service reads and appends confirmation receipts.
type Service interface {
	Append(ctx context.Context, input AppendInput) (*Receipt, error)
	Get(ctx context.Context, sessionID string, id int64) (*Receipt, error)
	List(ctx context.Context, sessionID string) ([]Receipt, error)
}

// AppendInput is what checkout knows after the backend accepted an order.
type AppendInput struct {
	OrderID         int64
	OrderNumber     string
	SessionID       string
	ClientID        *int64
	Items           []ReceiptItem
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	DiscountPercent decimal.Decimal
	Total           decimal.Decimal
	ShippingMethod  enums.ShippingMethod
	ShippingAddress *types.Address
	SavedAddressID  *int64
	PickupPointID   string
	PaymentMethod   enums.PaymentMethod
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Append(ctx context.Context, in AppendInput) (*Receipt, error) {
	if in.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if !in.ShippingMethod.IsValid() || !in.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping and payment methods are required")
	}

	receipt := buildReceipt(in, s.now().UTC())
	saved, err := s.repo.Create(ctx, receipt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store receipt")
	}
	return saved, nil
}

// BuildReceipt returns the receipt Append would store, without storing it.
func BuildReceipt(in AppendInput, at time.Time) *Receipt {
	return buildReceipt(in, at)
}

func buildReceipt(in AppendInput, at time.Time) *Receipt {
	r := &Receipt{
		ID:              in.OrderID,
		OrderNumber:     in.OrderNumber,
		SessionID:       in.SessionID,
		ClientID:        in.ClientID,
		Items:           ReceiptItems(append([]ReceiptItem{}, in.Items...)),
		Subtotal:        in.Subtotal,
		ShippingCost:    in.ShippingCost,
		DiscountPercent: in.DiscountPercent,
		Total:           in.Total,
		ShippingMethod:  in.ShippingMethod,
		ShippingAddress: in.ShippingAddress,
		SavedAddressID:  in.SavedAddressID,
		PaymentMethod:   in.PaymentMethod,
		Status:          enums.ReceiptStatusPending,
		CreatedAt:       at,
	}
	if p := strings.TrimSpace(in.PickupPointID); p != "" {
		r.PickupPointID = &p
	}
	return r
}

func (s *service) Get(ctx context.Context, sessionID string, id int64) (*Receipt, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	receipt, err := s.repo.FindBySessionAndID(ctx, sessionID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receipt")
	}
	return receipt, nil
}

func (s *service) List(ctx context.Context, sessionID string) ([]Receipt, error) {
	receipts, err := s.repo.ListBySession(ctx, sessionID, defaultListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list receipts")
	}
	return receipts, nil
}
