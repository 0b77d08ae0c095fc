package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseCart() Cart {
	return Cart{
		Items: []MenuLine{
			{MenuItemID: 1, Quantity: 2, UnitPrice: dec("10.00")},
			{MenuItemID: 3, Quantity: 1, UnitPrice: dec("4.50"), SupplementID: int64Ptr(9)},
		},
		BreakfastItems: []BreakfastLine{
			{BreakfastID: 5, Quantity: 1, UnitPrice: dec("8.00"), OptionIDs: []int64{101, 100}},
		},
		TotalPrice: dec("32.50"),
		OrderType:  TypeLocal,
		TableID:    int64Ptr(4),
		RequestID:  "3f2b8f5e-7f0c-4a55-9b7e-1c7f1b0c2d11",
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := baseCart()
	b := baseCart()

	b.Items[0], b.Items[1] = b.Items[1], b.Items[0]
	b.BreakfastItems[0].OptionIDs = []int64{100, 101}
	b.TotalPrice = dec("32.5")
	b.Items[1].UnitPrice = dec("10")

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 64)
}

func TestFingerprint_Sensitive(t *testing.T) {
	base := Fingerprint(baseCart())

	cases := map[string]func(c *Cart){
		"request id": func(c *Cart) { c.RequestID = "0d6c2b57-8d4a-4e36-a0f3-2f6f7b1f9a10" },
		"total":      func(c *Cart) { c.TotalPrice = dec("33.00") },
		"table":      func(c *Cart) { c.TableID = int64Ptr(5) },
		"order type": func(c *Cart) { c.OrderType = TypeDelivery },
		"quantity":   func(c *Cart) { c.Items[0].Quantity = 3 },
		"supplement": func(c *Cart) { c.Items[1].SupplementID = nil },
		"options":    func(c *Cart) { c.BreakfastItems[0].OptionIDs = []int64{100} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := baseCart()
			mutate(&c)
			assert.NotEqual(t, base, Fingerprint(c))
		})
	}
}

func TestFingerprint_DoesNotMutateCart(t *testing.T) {
	c := baseCart()
	Fingerprint(c)
	assert.Equal(t, []int64{101, 100}, c.BreakfastItems[0].OptionIDs)
	assert.Equal(t, int64(1), c.Items[0].MenuItemID)
}
