package shipping

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/agrostore-bff/internal/cart"
	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
)

// Quote is the set of carrier options for a postal code.
type Quote struct {
	PostalCode  string          `json:"postal_code"`
	BestCarrier string          `json:"best_carrier"`
	BestPrice   decimal.Decimal `json:"best_price"`
	Options     []Option        `json:"options"`
}

// Option is one carrier service. A non-empty PickupPoints means the parcel
// is collected at one of them instead of delivered to an address.
type Option struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	ServiceType  string          `json:"service_type"`
	DeliveryDays int             `json:"delivery_days"`
	Price        decimal.Decimal `json:"price"`
	PickupPoints []PickupPoint   `json:"pickup_points"`
}

type PickupPoint struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone,omitempty"`
	Hours       string `json:"hours,omitempty"`
}

// Option returns the option with id.
func (q *Quote) Option(id string) (Option, bool) {
	if q == nil {
		return Option{}, false
	}
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// PickupPoint returns the point with id.
func (o Option) PickupPoint(id string) (PickupPoint, bool) {
	for _, p := range o.PickupPoints {
		if p.ID == id {
			return p, true
		}
	}
	return PickupPoint{}, false
}

// HasPickupPoints reports whether the option is collected instead of delivered.
func (o Option) HasPickupPoints() bool {
	return len(o.PickupPoints) > 0
}

type Service interface {
	Quote(ctx context.Context, postalCode string, lines []cart.Line) (*Quote, error)
}

type quoter interface {
	QuoteShipping(ctx context.Context, req backend.QuoteRequest) (*backend.QuoteResponse, error)
}

type service struct {
	backend quoter
	group   singleflight.Group
}

func NewService(q quoter) (Service, error) {
	if q == nil {
		return nil, fmt.Errorf("shipping quoter required")
	}
	return &service{backend: q}, nil
}

// Quote asks for carrier options. Identical concurrent requests share one call.
func (s *service) Quote(ctx context.Context, postalCode string, lines []cart.Line) (*Quote, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required").
			WithDetails(map[string]string{"postal_code": "is required"})
	}

	req := backend.QuoteRequest{PostalCode: postalCode, Items: make([]backend.QuoteItem, 0, len(lines))}
	for _, l := range lines {
		req.Items = append(req.Items, backend.QuoteItem{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}

	v, err, _ := s.group.Do(flightKey(req), func() (interface{}, error) {
		resp, err := s.backend.QuoteShipping(ctx, req)
		if err != nil {
			return nil, err
		}
		return fromResponse(postalCode, resp), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Quote).clone(), nil
}

func flightKey(req backend.QuoteRequest) string {
	parts := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		variant := ""
		if it.VariantID != nil {
			variant = strconv.FormatInt(*it.VariantID, 10)
		}
		parts = append(parts, fmt.Sprintf("%d/%s/%d", it.ProductID, variant, it.Quantity))
	}
	sort.Strings(parts)
	return req.PostalCode + "|" + strings.Join(parts, ",")
}

func fromResponse(postalCode string, resp *backend.QuoteResponse) *Quote {
	q := &Quote{PostalCode: postalCode, Options: []Option{}}
	if resp == nil {
		return q
	}
	q.BestCarrier = resp.BestPrice.Carrier
	q.BestPrice = resp.BestPrice.Price
	for _, o := range resp.Options {
		opt := Option{
			ID:           o.ID,
			Carrier:      o.Carrier,
			ServiceType:  o.ServiceType,
			DeliveryDays: o.DeliveryDays,
			Price:        o.PriceWithTax,
			PickupPoints: make([]PickupPoint, 0, len(o.PickupPoints)),
		}
		for _, p := range o.PickupPoints {
			street := p.Street
			if p.Number != "" {
				street += " " + p.Number
			}
			opt.PickupPoints = append(opt.PickupPoints, PickupPoint{
				ID:          p.ID,
				Description: p.Description,
				Address:     street,
				City:        p.City,
				Province:    p.Province,
				PostalCode:  p.PostalCode,
				Phone:       p.Phone,
				Hours:       p.Hours,
			})
		}
		q.Options = append(q.Options, opt)
	}
	return q
}

func (q *Quote) clone() *Quote {
	out := *q
	out.Options = make([]Option, len(q.Options))
	for i, o := range q.Options {
		o.PickupPoints = append([]PickupPoint{}, o.PickupPoints...)
		out.Options[i] = o
	}
	return &out
}
