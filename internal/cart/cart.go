package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
)

// Item carries the product facts a line is built from.
type Item struct {
	ProductID      int64
	VariantID      *int64
	DisplayName    string
	UnitPrice      decimal.Decimal
	ImageRef       string
	AvailableStock int
}

// Line is one product in the cart. 1 <= Quantity <= AvailableStock always holds.
type Line struct {
	ProductID      int64           `json:"product_id"`
	VariantID      *int64          `json:"variant_id,omitempty"`
	DisplayName    string          `json:"display_name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ImageRef       string          `json:"image_ref,omitempty"`
	AvailableStock int             `json:"available_stock"`
	Quantity       int             `json:"quantity"`
}

// Subtotal is UnitPrice times Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered set of lines of one shopper session. Insertion order
// is display order. Cart does no I/O and no locking; Store does both.
type Cart struct {
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View is the cart with derived totals, as served to clients.
type View struct {
	Lines      []Line          `json:"lines"`
	TotalItems int             `json:"total_items"`
	Total      decimal.Decimal `json:"total"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty"`
}

func clamp(q, max int) int {
	if q > max {
		q = max
	}
	if q < 1 {
		q = 1
	}
	return q
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges quantity into the product's line, clamped to [1, stock].
// The line's price and stock snapshot are refreshed from item.
func (c *Cart) AddItem(item Item, quantity int) error {
	if item.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if item.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if item.AvailableStock <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock").
			WithDetails(map[string]any{"product_id": item.ProductID})
	}
	if quantity < 1 {
		quantity = 1
	}

	idx := c.indexOf(item.ProductID)
	if idx < 0 {
		c.Lines = append(c.Lines, Line{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			DisplayName:    strings.TrimSpace(item.DisplayName),
			UnitPrice:      item.UnitPrice,
			ImageRef:       item.ImageRef,
			AvailableStock: item.AvailableStock,
			Quantity:       clamp(quantity, item.AvailableStock),
		})
		return nil
	}

	line := &c.Lines[idx]
	if !sameVariant(line.VariantID, item.VariantID) {
		return pkgerrors.New(pkgerrors.CodeConflict, "product already in cart with another variant").
			WithDetails(map[string]any{"product_id": item.ProductID})
	}
	line.DisplayName = strings.TrimSpace(item.DisplayName)
	line.UnitPrice = item.UnitPrice
	line.ImageRef = item.ImageRef
	line.AvailableStock = item.AvailableStock
	line.Quantity = clamp(line.Quantity+quantity, item.AvailableStock)
	return nil
}

func sameVariant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RemoveItem drops the product's line; unknown ids are ignored.
func (c *Cart) RemoveItem(productID int64) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

// UpdateQuantity sets the line's quantity clamped to [1, stock].
// quantity <= 0 removes the line; unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	if quantity <= 0 || c.Lines[idx].AvailableStock <= 0 {
		c.RemoveItem(productID)
		return
	}
	c.Lines[idx].Quantity = clamp(quantity, c.Lines[idx].AvailableStock)
}

// RemoveOrdered subtracts the ordered quantities from the matching lines and
// drops lines that reach zero. Lines and quantities added after the order
// snapshot stay in the cart.
func (c *Cart) RemoveOrdered(ordered []Line) {
	for _, o := range ordered {
		idx := c.indexOf(o.ProductID)
		if idx < 0 {
			continue
		}
		left := c.Lines[idx].Quantity - o.Quantity
		if left <= 0 {
			c.RemoveItem(o.ProductID)
			continue
		}
		c.Lines[idx].Quantity = left
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Total is the sum of unit price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Snapshot returns a deep copy safe to hand to readers.
func (c *Cart) Snapshot() *Cart {
	if c == nil {
		return &Cart{}
	}
	out := &Cart{UpdatedAt: c.UpdatedAt}
	if len(c.Lines) > 0 {
		out.Lines = make([]Line, len(c.Lines))
		for i, l := range c.Lines {
			if l.VariantID != nil {
				v := *l.VariantID
				l.VariantID = &v
			}
			out.Lines[i] = l
		}
	}
	return out
}

// View computes totals from the current lines.
func (c *Cart) View() View {
	snap := c.Snapshot()
	lines := snap.Lines
	if lines == nil {
		lines = []Line{}
	}
	return View{
		Lines:      lines,
		TotalItems: snap.TotalItems(),
		Total:      snap.Total(),
		UpdatedAt:  snap.UpdatedAt,
	}
}

// ItemFromProduct builds an Item from the backend catalog, picking the
// variant's price and stock when variantID is set.
func ItemFromProduct(p *backend.Product, variantID *int64) (Item, error) {
	if p == nil {
		return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	item := Item{
		ProductID:      p.ID,
		DisplayName:    p.Name,
		UnitPrice:      p.Price,
		ImageRef:       p.ImageURL,
		AvailableStock: p.Stock,
	}
	if variantID == nil {
		return item, nil
	}

	v, ok := p.FindVariant(*variantID)
	if !ok {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %d does not belong to product %d", *variantID, p.ID))
	}
	id := v.ID
	item.VariantID = &id
	item.DisplayName = strings.TrimSpace(p.Name + " " + v.Name)
	item.AvailableStock = v.Stock
	if v.Price != nil {
		item.UnitPrice = *v.Price
	}
	return item, nil
}
