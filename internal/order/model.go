package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	TypeLocal    OrderType = "local"
	TypeDelivery OrderType = "delivery"
)

type MenuLine struct {
	MenuItemID   int64           `json:"menu_item_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SupplementID *int64          `json:"supplement_id,omitempty"`
}

type BreakfastLine struct {
	BreakfastID int64           `json:"breakfast_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	OptionIDs   []int64         `json:"option_ids"`
}

// Cart is the body of POST /orders.
type Cart struct {
	Items           []MenuLine      `json:"items"`
	BreakfastItems  []BreakfastLine `json:"breakfastItems"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	OrderType       OrderType       `json:"order_type"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	TableID         *int64          `json:"table_id,omitempty"`
	PromotionID     *int64          `json:"promotion_id,omitempty"`
	RequestID       string          `json:"request_id"`
	UserID          *uint           `json:"user_id,omitempty"`
}

type CreateResult struct {
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

// NewOrder is a reconciled cart ready to be persisted.
type NewOrder struct {
	Type            OrderType
	DeliveryAddress string
	TableID         *int64
	TableNumber     int
	PromotionID     *int64
	SessionID       string
	UserID          *uint
	Total           decimal.Decimal
	MenuLines       []PricedMenuLine
	BreakfastLines  []PricedBreakfastLine
}

// NotificationText is the staff notification message for the order.
func (o NewOrder) NotificationText(orderID int64) string {
	if o.Type == TypeDelivery {
		return fmt.Sprintf("New delivery order #%d to %s", orderID, o.DeliveryAddress)
	}
	return fmt.Sprintf("New order #%d for table %d", orderID, o.TableNumber)
}

type CommitResult struct {
	OrderID int64
	// TableOccupied is set when this order flipped its table to occupied.
	TableOccupied bool
	Notification  Notification
}

type Notification struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	ReferenceID int64     `json:"reference_id"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderDetail is the denormalized order served by the read endpoints and
// pushed in realtime events.
type OrderDetail struct {
	ID              int64             `json:"id"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	OrderType       OrderType         `json:"order_type"`
	DeliveryAddress *string           `json:"delivery_address"`
	TableID         *int64            `json:"table_id"`
	TableNumber     *int              `json:"table_number"`
	PromotionID     *int64            `json:"promotion_id"`
	SessionID       string            `json:"session_id,omitempty"`
	UserID          *uint             `json:"user_id,omitempty"`
	Approved        bool              `json:"approved"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []ItemDetail      `json:"items"`
	BreakfastItems  []BreakfastDetail `json:"breakfastItems"`
}

type ItemDetail struct {
	ID             int64           `json:"id"`
	MenuItemID     int64           `json:"menu_item_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SupplementID   *int64          `json:"supplement_id"`
	SupplementName *string         `json:"supplement_name"`
}

type BreakfastDetail struct {
	ID          int64           `json:"id"`
	BreakfastID int64           `json:"breakfast_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Options     []OptionDetail  `json:"options"`
}

type OptionDetail struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	GroupName string `json:"group_name"`
}
