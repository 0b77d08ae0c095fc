package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultMenuLimit = int32(20)
	maxMenuLimit     = int32(100)
)

// MenuReader lists what customers can put in a cart.
type MenuReader interface {
	ListMenuItems(ctx context.Context, filter *string, limit, page *int32) ([]MenuItem, error)
	ListBreakfasts(ctx context.Context) ([]BreakfastMenu, error)
}

type BreakfastMenu struct {
	Breakfast
	Groups []GroupMenu
}

type GroupMenu struct {
	OptionGroup
	Options []BreakfastOption
}

func NewMenuReader(db *sql.DB) MenuReader {
	return &repository{db: db}
}

// ListMenuItems pages through available menu items by name. A nil or
// non-positive limit or page falls back to the defaults.
func (r *repository) ListMenuItems(ctx context.Context, filter *string, limit, page *int32) ([]MenuItem, error) {
	finalLimit := defaultMenuLimit
	if limit != nil && *limit > 0 {
		finalLimit = min(*limit, maxMenuLimit)
	}
	finalPage := int32(1)
	if page != nil && *page > 0 {
		finalPage = *page
	}
	offset := (finalPage - 1) * finalLimit

	log := r.log(ctx, "ListMenuItems").With(
		zap.Int32("limit", finalLimit),
		zap.Int32("page", finalPage),
	)

	query := `
		SELECT id, name, price, sale_price, available
		FROM menu_items
	`
	where := []string{"available = TRUE"}
	args := []any{}

	if filter != nil && *filter != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+*filter+"%")
	}

	query += " WHERE " + strings.Join(where, " AND ")
	query += " ORDER BY name ASC, id ASC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query menu items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		var (
			m    MenuItem
			sale decimal.NullDecimal
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &sale, &m.Available); err != nil {
			log.Error("failed to scan menu item", zap.Error(err))
			return nil, err
		}
		if sale.Valid {
			m.SalePrice = &sale.Decimal
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	return items, nil
}

// ListBreakfasts returns available breakfasts with their option groups and
// options, loaded with one join.
func (r *repository) ListBreakfasts(ctx context.Context) ([]BreakfastMenu, error) {
	log := r.log(ctx, "ListBreakfasts")

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			b.id, b.name, b.price,
			g.id, g.name,
			o.id, o.name, o.additional_price
		FROM breakfasts b
		LEFT JOIN breakfast_option_groups g ON g.breakfast_id = b.id
		LEFT JOIN breakfast_options o ON o.group_id = g.id
		WHERE b.available = TRUE
		ORDER BY b.id, g.id, o.id
	`)
	if err != nil {
		log.Error("failed to query breakfasts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	menus := []BreakfastMenu{}
	for rows.Next() {
		var (
			b         Breakfast
			groupID   sql.NullInt64
			groupName sql.NullString
			optID     sql.NullInt64
			optName   sql.NullString
			optPrice  decimal.NullDecimal
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Price, &groupID, &groupName, &optID, &optName, &optPrice); err != nil {
			log.Error("failed to scan breakfast row", zap.Error(err))
			return nil, err
		}
		b.Available = true

		// rows arrive ordered, so a new id only ever follows the last one
		if len(menus) == 0 || menus[len(menus)-1].ID != b.ID {
			menus = append(menus, BreakfastMenu{Breakfast: b})
		}
		bm := &menus[len(menus)-1]

		if !groupID.Valid {
			continue
		}
		if len(bm.Groups) == 0 || bm.Groups[len(bm.Groups)-1].ID != groupID.Int64 {
			bm.Groups = append(bm.Groups, GroupMenu{OptionGroup: OptionGroup{ID: groupID.Int64, Name: groupName.String}})
		}
		g := &bm.Groups[len(bm.Groups)-1]

		if optID.Valid {
			g.Options = append(g.Options, BreakfastOption{
				ID:              optID.Int64,
				GroupID:         groupID.Int64,
				Name:            optName.String,
				AdditionalPrice: optPrice.Decimal,
			})
		}
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	return menus, nil
}
