package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
)

func seedItem(id int64, price int64, stock int) Item {
	return Item{
		ProductID:      id,
		DisplayName:    "Semilla",
		UnitPrice:      decimal.NewFromInt(price),
		AvailableStock: stock,
	}
}

func TestTotalsForSingleLine(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(seedItem(1, 85000, 10), 2))

	assert.True(t, c.Total().Equal(decimal.NewFromInt(170000)), c.Total().String())
	assert.Equal(t, 2, c.TotalItems())
}

func TestAddItemClampsToStock(t *testing.T) {
	c := &Cart{}
	item := seedItem(5, 1000, 3)

	require.NoError(t, c.AddItem(item, 1))
	require.NoError(t, c.AddItem(item, 1))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)

	require.NoError(t, c.AddItem(item, 5))
	assert.Equal(t, 3, c.Lines[0].Quantity)
}

func TestRepeatedAddsNeverExceedStock(t *testing.T) {
	for stock := 1; stock <= 6; stock++ {
		c := &Cart{}
		item := seedItem(9, 10, stock)
		for i := 0; i < 20; i++ {
			require.NoError(t, c.AddItem(item, i%4))
			require.LessOrEqual(t, c.Lines[0].Quantity, stock)
			require.GreaterOrEqual(t, c.Lines[0].Quantity, 1)
		}
	}
}

func TestAddItemRejectsOutOfStock(t *testing.T) {
	c := &Cart{}
	err := c.AddItem(seedItem(3, 10, 0), 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.True(t, c.IsEmpty())
}

func TestAddItemRefreshesSnapshotAndKeepsOrder(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(seedItem(1, 100, 5), 4))
	require.NoError(t, c.AddItem(seedItem(2, 50, 5), 1))

	lower := seedItem(1, 120, 2)
	require.NoError(t, c.AddItem(lower, 1))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, int64(1), c.Lines[0].ProductID)
	assert.Equal(t, int64(2), c.Lines[1].ProductID)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].UnitPrice.Equal(decimal.NewFromInt(120)))
}

func TestAddItemRejectsOtherVariant(t *testing.T) {
	c := &Cart{}
	v1, v2 := int64(10), int64(11)
	a := seedItem(1, 100, 5)
	a.VariantID = &v1
	require.NoError(t, c.AddItem(a, 1))

	b := seedItem(1, 100, 5)
	b.VariantID = &v2
	err := c.AddItem(b, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestUpdateQuantityClampsSymmetrically(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(seedItem(1, 100, 4), 1))

	c.UpdateQuantity(1, 40)
	assert.Equal(t, 4, c.Lines[0].Quantity)

	c.UpdateQuantity(1, 2)
	assert.Equal(t, 2, c.Lines[0].Quantity)

	c.UpdateQuantity(99, 3)
	assert.Len(t, c.Lines, 1)

	c.UpdateQuantity(1, 0)
	assert.True(t, c.IsEmpty())
}

func TestRemoveItemAndClear(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(seedItem(1, 100, 4), 1))
	require.NoError(t, c.AddItem(seedItem(2, 100, 4), 3))

	c.RemoveItem(42)
	assert.Len(t, c.Lines, 2)

	c.RemoveItem(1)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.TotalItems())

	c.Clear()
	assert.Equal(t, 0, c.TotalItems())
	assert.True(t, c.Total().IsZero())
}

func TestSnapshotIsDeep(t *testing.T) {
	c := &Cart{}
	v := int64(7)
	item := seedItem(1, 100, 4)
	item.VariantID = &v
	require.NoError(t, c.AddItem(item, 1))

	snap := c.Snapshot()
	snap.Lines[0].Quantity = 3
	*snap.Lines[0].VariantID = 8

	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, int64(7), *c.Lines[0].VariantID)
}

func TestViewOfEmptyCart(t *testing.T) {
	view := (&Cart{}).View()
	assert.NotNil(t, view.Lines)
	assert.Equal(t, 0, view.TotalItems)
	assert.True(t, view.Total.IsZero())
}

func TestItemFromProductUsesVariant(t *testing.T) {
	vp := decimal.NewFromInt(52000)
	p := &backend.Product{
		ID:    3,
		Name:  "Fertilizante",
		Price: decimal.NewFromInt(30000),
		Stock: 8,
		Variants: []backend.Variant{
			{ID: 31, Name: "25kg", Price: &vp, Stock: 2},
		},
	}

	item, err := ItemFromProduct(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, item.AvailableStock)
	assert.Nil(t, item.VariantID)

	vid := int64(31)
	item, err = ItemFromProduct(p, &vid)
	require.NoError(t, err)
	assert.Equal(t, "Fertilizante 25kg", item.DisplayName)
	assert.Equal(t, 2, item.AvailableStock)
	assert.True(t, item.UnitPrice.Equal(vp))

	bad := int64(99)
	_, err = ItemFromProduct(p, &bad)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRemoveOrderedKeepsLaterAdditions(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(seedItem(1, 100, 10), 2))
	require.NoError(t, c.AddItem(seedItem(3, 50, 10), 1))
	ordered := c.Snapshot().Lines

	require.NoError(t, c.AddItem(seedItem(1, 100, 10), 3))
	require.NoError(t, c.AddItem(seedItem(2, 70, 10), 1))

	c.RemoveOrdered(ordered)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, int64(1), c.Lines[0].ProductID)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, int64(2), c.Lines[1].ProductID)

	c.RemoveOrdered([]Line{{ProductID: 99, Quantity: 1}})
	assert.Len(t, c.Lines, 2)
}
