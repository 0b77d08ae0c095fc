package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validate checks request shape only; catalog state is checked by the Reconciler.
func (c Cart) Validate() error {
	verr := &ValidationError{}

	if c.RequestID == "" {
		verr.Add("request_id", "is required")
	} else if _, err := uuid.Parse(c.RequestID); err != nil {
		verr.Add("request_id", "must be a UUID")
	}

	switch c.OrderType {
	case TypeLocal:
		if c.TableID == nil || *c.TableID <= 0 {
			verr.Add("table_id", "is required for local orders")
		}
	case TypeDelivery:
		if strings.TrimSpace(c.DeliveryAddress) == "" {
			verr.Add("delivery_address", "is required for delivery orders")
		}
	default:
		verr.Add("order_type", "must be local or delivery")
	}

	if len(c.Items) == 0 && len(c.BreakfastItems) == 0 {
		verr.Add("items", "at least one item is required")
	}
	for i, l := range c.Items {
		if l.MenuItemID <= 0 {
			verr.Add(fmt.Sprintf("items[%d].menu_item_id", i), "is required")
		}
		if l.Quantity < 1 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if l.UnitPrice.IsNegative() {
			verr.Add(fmt.Sprintf("items[%d].unit_price", i), "must not be negative")
		}
	}
	for i, l := range c.BreakfastItems {
		if l.BreakfastID <= 0 {
			verr.Add(fmt.Sprintf("breakfastItems[%d].breakfast_id", i), "is required")
		}
		if l.Quantity < 1 {
			verr.Add(fmt.Sprintf("breakfastItems[%d].quantity", i), "must be at least 1")
		}
		if l.UnitPrice.IsNegative() {
			verr.Add(fmt.Sprintf("breakfastItems[%d].unit_price", i), "must not be negative")
		}
	}

	if c.TotalPrice.IsNegative() {
		verr.Add("total_price", "must not be negative")
	}
	if c.PromotionID != nil && *c.PromotionID <= 0 {
		verr.Add("promotion_id", "must be a positive id")
	}

	return verr.orNil()
}
