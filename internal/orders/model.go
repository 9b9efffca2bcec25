package orders

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agrostore-bff/pkg/enums"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

// Receipt is the local copy of a submitted order shown on the confirmation
// screen. The backend keeps the authoritative order.
type Receipt struct {
	ID              int64                `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	OrderNumber     string               `gorm:"column:order_number;not null" json:"order_number"`
	SessionID       string               `gorm:"column:session_id;not null" json:"-"`
	ClientID        *int64               `gorm:"column:client_id" json:"client_id,omitempty"`
	Items           ReceiptItems         `gorm:"column:items;type:text;not null" json:"items"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(14,2)" json:"subtotal"`
	ShippingCost    decimal.Decimal      `gorm:"column:shipping_cost;type:numeric(14,2)" json:"shipping_cost"`
	DiscountPercent decimal.Decimal      `gorm:"column:discount_percent;type:numeric(5,2)" json:"discount_percent"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(14,2)" json:"total"`
	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;not null" json:"shipping_method"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:text" json:"shipping_address,omitempty"`
	SavedAddressID  *int64               `gorm:"column:saved_address_id" json:"saved_address_id,omitempty"`
	PickupPointID   *string              `gorm:"column:pickup_point_id" json:"pickup_point_id,omitempty"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;not null" json:"payment_method"`
	Status          enums.ReceiptStatus  `gorm:"column:status;not null" json:"status"`
	CreatedAt       time.Time            `gorm:"column:created_at;not null" json:"created_at"`
}

func (Receipt) TableName() string { return "order_receipts" }

// ReceiptItem is a cart line frozen at submission time.
type ReceiptItem struct {
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	ImageRef    string          `json:"image_ref,omitempty"`
}

// ReceiptItems is stored as a JSON text column.
type ReceiptItems []ReceiptItem

func (r ReceiptItems) Value() (driver.Value, error) {
	if r == nil {
		r = ReceiptItems{}
	}
	b, err := json.Marshal([]ReceiptItem(r))
	if err != nil {
		return nil, fmt.Errorf("receipt items: marshal: %w", err)
	}
	return string(b), nil
}

func (r *ReceiptItems) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = ReceiptItems{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("receipt items: unsupported scan type %T", value)
	}
	var items []ReceiptItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("receipt items: unmarshal: %w", err)
	}
	*r = items
	return nil
}
