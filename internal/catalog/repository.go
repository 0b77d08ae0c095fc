package catalog

import (
	"context"
	"database/sql"
	"errors"

	"resto-be/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository is the read-only view of the catalog used while pricing orders.
type Repository interface {
	GetMenuItem(ctx context.Context, id int64) (MenuItem, error)
	GetItemSupplement(ctx context.Context, itemID, supplementID int64) (decimal.Decimal, error)
	GetBreakfast(ctx context.Context, id int64) (Breakfast, error)
	GetBreakfastGroups(ctx context.Context, breakfastID int64) ([]OptionGroup, error)
	GetBreakfastOptions(ctx context.Context, breakfastID int64, optionIDs []int64) ([]BreakfastOption, error)
	GetPromotion(ctx context.Context, id int64) (Promotion, error)
	GetTable(ctx context.Context, id int64) (Table, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) log(ctx context.Context, method string) *zap.Logger {
	return logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
	)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repository) GetMenuItem(ctx context.Context, id int64) (MenuItem, error) {
	var (
		m    MenuItem
		sale decimal.NullDecimal
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, sale_price, available
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Price, &sale, &m.Available)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log(ctx, "GetMenuItem").Error("failed to load menu item", zap.Int64("menu_item_id", id), zap.Error(err))
		}
		return MenuItem{}, notFound(err)
	}

	if sale.Valid {
		m.SalePrice = &sale.Decimal
	}
	return m, nil
}

func (r *repository) GetItemSupplement(ctx context.Context, itemID, supplementID int64) (decimal.Decimal, error) {
	var price decimal.Decimal

	err := r.db.QueryRowContext(ctx, `
		SELECT additional_price
		FROM item_supplements
		WHERE menu_item_id = $1 AND supplement_id = $2
	`, itemID, supplementID).Scan(&price)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log(ctx, "GetItemSupplement").Error("failed to load supplement",
				zap.Int64("menu_item_id", itemID),
				zap.Int64("supplement_id", supplementID),
				zap.Error(err),
			)
		}
		return decimal.Zero, notFound(err)
	}

	return price, nil
}

func (r *repository) GetBreakfast(ctx context.Context, id int64) (Breakfast, error) {
	var b Breakfast

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, available
		FROM breakfasts
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Price, &b.Available)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log(ctx, "GetBreakfast").Error("failed to load breakfast", zap.Int64("breakfast_id", id), zap.Error(err))
		}
		return Breakfast{}, notFound(err)
	}

	return b, nil
}

func (r *repository) GetBreakfastGroups(ctx context.Context, breakfastID int64) ([]OptionGroup, error) {
	log := r.log(ctx, "GetBreakfastGroups")

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM breakfast_option_groups
		WHERE breakfast_id = $1
		ORDER BY id
	`, breakfastID)
	if err != nil {
		log.Error("failed to query option groups", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var groups []OptionGroup
	for rows.Next() {
		var g OptionGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			log.Error("failed to scan option group", zap.Error(err))
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// GetBreakfastOptions returns the requested options that belong to the
// breakfast. Ids of other breakfasts' options are silently left out.
func (r *repository) GetBreakfastOptions(ctx context.Context, breakfastID int64, optionIDs []int64) ([]BreakfastOption, error) {
	if len(optionIDs) == 0 {
		return nil, nil
	}
	log := r.log(ctx, "GetBreakfastOptions")

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.group_id, o.name, o.additional_price
		FROM breakfast_options o
		JOIN breakfast_option_groups g ON g.id = o.group_id
		WHERE g.breakfast_id = $1 AND o.id = ANY($2)
		ORDER BY o.id
	`, breakfastID, pq.Array(optionIDs))
	if err != nil {
		log.Error("failed to query breakfast options", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var opts []BreakfastOption
	for rows.Next() {
		var o BreakfastOption
		if err := rows.Scan(&o.ID, &o.GroupID, &o.Name, &o.AdditionalPrice); err != nil {
			log.Error("failed to scan breakfast option", zap.Error(err))
			return nil, err
		}
		opts = append(opts, o)
	}

	return opts, rows.Err()
}

func (r *repository) GetPromotion(ctx context.Context, id int64) (Promotion, error) {
	var (
		p      Promotion
		itemID sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, discount_percentage, menu_item_id, start_date, end_date
		FROM promotions
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.DiscountPercentage, &itemID, &p.StartDate, &p.EndDate)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log(ctx, "GetPromotion").Error("failed to load promotion", zap.Int64("promotion_id", id), zap.Error(err))
		}
		return Promotion{}, notFound(err)
	}

	if itemID.Valid {
		p.MenuItemID = &itemID.Int64
	}
	return p, nil
}

func (r *repository) GetTable(ctx context.Context, id int64) (Table, error) {
	var t Table

	err := r.db.QueryRowContext(ctx, `
		SELECT id, number, status
		FROM restaurant_tables
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Number, &t.Status)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log(ctx, "GetTable").Error("failed to load table", zap.Int64("table_id", id), zap.Error(err))
		}
		return Table{}, notFound(err)
	}

	return t, nil
}
