package order

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// lineRow is one row of the order_items join: a line, optionally repeated
// once per selected breakfast option.
type lineRow struct {
	ItemID         int64
	OrderID        int64
	MenuItemID     sql.NullInt64
	MenuItemName   sql.NullString
	SupplementID   sql.NullInt64
	SupplementName sql.NullString
	BreakfastID    sql.NullInt64
	BreakfastName  sql.NullString
	Quantity       int
	UnitPrice      decimal.Decimal
	OptionID       sql.NullInt64
	OptionName     sql.NullString
	GroupName      sql.NullString
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// attachLines groups flat line rows under their orders. Rows must be ordered
// by order id then line id.
func attachLines(orders []OrderDetail, rows []lineRow) {
	byID := make(map[int64]*OrderDetail, len(orders))
	for i := range orders {
		orders[i].Items = []ItemDetail{}
		orders[i].BreakfastItems = []BreakfastDetail{}
		byID[orders[i].ID] = &orders[i]
	}

	for _, row := range rows {
		o, ok := byID[row.OrderID]
		if !ok {
			continue
		}

		if row.BreakfastID.Valid {
			n := len(o.BreakfastItems)
			if n == 0 || o.BreakfastItems[n-1].ID != row.ItemID {
				o.BreakfastItems = append(o.BreakfastItems, BreakfastDetail{
					ID:          row.ItemID,
					BreakfastID: row.BreakfastID.Int64,
					Name:        row.BreakfastName.String,
					Quantity:    row.Quantity,
					UnitPrice:   row.UnitPrice,
					Options:     []OptionDetail{},
				})
				n++
			}
			if row.OptionID.Valid {
				b := &o.BreakfastItems[n-1]
				b.Options = append(b.Options, OptionDetail{
					ID:        row.OptionID.Int64,
					Name:      row.OptionName.String,
					GroupName: row.GroupName.String,
				})
			}
			continue
		}

		o.Items = append(o.Items, ItemDetail{
			ID:             row.ItemID,
			MenuItemID:     row.MenuItemID.Int64,
			Name:           row.MenuItemName.String,
			Quantity:       row.Quantity,
			UnitPrice:      row.UnitPrice,
			SupplementID:   nullInt64Ptr(row.SupplementID),
			SupplementName: nullStringPtr(row.SupplementName),
		})
	}
}
