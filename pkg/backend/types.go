package backend

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agrostore-bff/pkg/enums"
)

// Product is a catalog entry with the price and stock the backend holds authoritative.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url,omitempty"`
	Stock        int             `json:"stock"`
	CategoryID   int64           `json:"category_id,omitempty"`
	CategorySlug string          `json:"category_slug,omitempty"`
	Variants     []Variant       `json:"variants,omitempty"`
}

// Variant is a purchasable presentation of a product (bag size, drum volume).
type Variant struct {
	ID    int64            `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock int              `json:"stock"`
}

// FindVariant returns the variant with the given id.
func (p Product) FindVariant(id int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

type ProductFilter struct {
	Category string
	Search   string
	Page     int
}

type ProductPage struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Total      int       `json:"total"`
}

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url,omitempty"`
}

type Post struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Body        string    `json:"body,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

type PostPage struct {
	Items      []Post `json:"items"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

// AddressRecord is the address directory wire shape.
type AddressRecord struct {
	ID         int64  `json:"id,omitempty"`
	ClientID   int64  `json:"client_id,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Street     string `json:"street"`
	Number     string `json:"number,omitempty"`
	Floor      string `json:"floor,omitempty"`
	Apartment  string `json:"apartment,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Comment    string `json:"comment,omitempty"`
}

// QuoteItem is one cart line as the quote endpoint expects it.
type QuoteItem struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type QuoteRequest struct {
	PostalCode string      `json:"postal_code"`
	Items      []QuoteItem `json:"items,omitempty"`
}

type QuoteResponse struct {
	BestPrice BestPrice        `json:"best_price"`
	Options   []ShippingOption `json:"options"`
}

// BestPrice summarizes the cheapest carrier for the postal code.
type BestPrice struct {
	Carrier string          `json:"carrier"`
	Price   decimal.Decimal `json:"price"`
}

type ShippingOption struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	ServiceType  string          `json:"service_type"`
	DeliveryDays int             `json:"delivery_days"`
	PriceWithTax decimal.Decimal `json:"price_with_tax"`
	PickupPoints []PickupPoint   `json:"pickup_points"`
}

type PickupPoint struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Street      string `json:"street"`
	Number      string `json:"number,omitempty"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone,omitempty"`
	Hours       string `json:"hours,omitempty"`
}

// OrderRequest is the order creation payload. Exactly one of ClientID and
// Guest is set; exactly one of SavedAddressID, Shipping and PickupPointID
// is set unless the order is picked up at the store.
type OrderRequest struct {
	ClientID        *int64              `json:"client_id,omitempty"`
	Guest           *OrderGuest         `json:"guest,omitempty"`
	Items           []OrderItem         `json:"items"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	DiscountID      int                 `json:"payment_discount_id"`
	DiscountPercent decimal.Decimal     `json:"payment_discount_percent"`
	Channel         string              `json:"channel"`
	Comment         string              `json:"comment,omitempty"`
	TransferAccount string              `json:"transfer_account,omitempty"`
	ShippingMethod  string              `json:"shipping_method"`
	SavedAddressID  *int64              `json:"shipping_address_id,omitempty"`
	Shipping        *OrderShipping      `json:"shipping,omitempty"`
	PickupPointID   string              `json:"pickup_point_id,omitempty"`
	ShippingOption  string              `json:"shipping_option_id,omitempty"`
	ShippingPrice   decimal.Decimal     `json:"shipping_price"`
}

type OrderGuest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type OrderItem struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// OrderShipping is the raw delivery block of the order payload.
type OrderShipping struct {
	Recipient string `json:"recipient"`
	Address   string `json:"address"`
	Floor     string `json:"floor,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	Province  string `json:"province"`
	ZipCode   string `json:"zip_code"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes,omitempty"`
}

type OrderResponse struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
}
