package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	Available bool
}

// EffectivePrice is the sale price when one is set, the regular price otherwise.
func (m MenuItem) EffectivePrice() decimal.Decimal {
	if m.SalePrice != nil {
		return *m.SalePrice
	}
	return m.Price
}

type Breakfast struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Available bool
}

type OptionGroup struct {
	ID   int64
	Name string
}

type BreakfastOption struct {
	ID              int64
	GroupID         int64
	Name            string
	AdditionalPrice decimal.Decimal
}

type Promotion struct {
	ID                 int64
	Title              string
	DiscountPercentage decimal.Decimal
	MenuItemID         *int64
	StartDate          time.Time
	EndDate            time.Time
}

// ActiveAt reports whether t falls inside the promotion window (inclusive).
func (p Promotion) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// Applies reports whether the promotion discounts the given menu item.
// Unscoped promotions apply to every menu item.
func (p Promotion) Applies(menuItemID int64) bool {
	return p.MenuItemID == nil || *p.MenuItemID == menuItemID
}

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
)

type Table struct {
	ID     int64
	Number int
	Status string
}
