package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resto-be/internal/catalog"
	"resto-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CommitOrder writes the order, its lines, option selections, the staff
	// notification and the table status in one transaction.
	CommitOrder(ctx context.Context, o NewOrder) (*CommitResult, error)
	Approve(ctx context.Context, orderID int64) error
	FetchOrders(ctx context.Context, preds ...Predicate) ([]OrderDetail, error)
	GetOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func persistence(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, step, err)
}

func (r *repository) CommitOrder(ctx context.Context, o NewOrder) (*CommitResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CommitOrder"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, persistence("begin", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var address sql.NullString
	if o.Type == TypeDelivery {
		address = sql.NullString{String: o.DeliveryAddress, Valid: true}
	}
	var userID sql.NullInt64
	if o.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*o.UserID), Valid: true}
	}

	// 1. Order header
	res := &CommitResult{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			total_price, order_type, delivery_address,
			table_id, promotion_id, session_id, user_id, approved
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING id
	`,
		o.Total,
		o.Type,
		address,
		o.TableID,
		o.PromotionID,
		o.SessionID,
		userID,
	).Scan(&res.OrderID)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, persistence("insert order", err)
	}
	log = log.With(zap.Int64("order_id", res.OrderID))

	// 2. Menu item lines
	for _, line := range o.MenuLines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, menu_item_id, supplement_id, quantity, unit_price
			) VALUES ($1, $2, $3, $4, $5)
		`,
			res.OrderID,
			line.MenuItemID,
			line.SupplementID,
			line.Quantity,
			line.Expected,
		)
		if err != nil {
			log.Error("failed to insert menu line", zap.Int64("menu_item_id", line.MenuItemID), zap.Error(err))
			return nil, persistence("insert menu line", err)
		}
	}

	// 3. Breakfast lines and their option selections
	for _, line := range o.BreakfastLines {
		var itemID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, breakfast_id, quantity, unit_price
			) VALUES ($1, $2, $3, $4)
			RETURNING id
		`,
			res.OrderID,
			line.BreakfastID,
			line.Quantity,
			line.Expected,
		).Scan(&itemID)
		if err != nil {
			log.Error("failed to insert breakfast line", zap.Int64("breakfast_id", line.BreakfastID), zap.Error(err))
			return nil, persistence("insert breakfast line", err)
		}

		for _, optionID := range line.OptionIDs {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_breakfast_options (order_item_id, option_id)
				VALUES ($1, $2)
			`, itemID, optionID)
			if err != nil {
				log.Error("failed to insert breakfast option", zap.Int64("option_id", optionID), zap.Error(err))
				return nil, persistence("insert breakfast option", err)
			}
		}
	}

	// 4. Staff notification
	n := Notification{Type: "order", ReferenceID: res.OrderID, Message: o.NotificationText(res.OrderID)}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO notifications (type, reference_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`, n.Type, n.ReferenceID, n.Message).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		log.Error("failed to insert notification", zap.Error(err))
		return nil, persistence("insert notification", err)
	}
	res.Notification = n

	// 5. Table occupancy, only when it actually changes
	if o.TableID != nil {
		result, err := tx.ExecContext(ctx, `
			UPDATE restaurant_tables
			SET status = $1
			WHERE id = $2 AND status <> $1
		`, catalog.TableOccupied, *o.TableID)
		if err != nil {
			log.Error("failed to update table status", zap.Int64("table_id", *o.TableID), zap.Error(err))
			return nil, persistence("update table", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, persistence("update table", err)
		}
		res.TableOccupied = affected > 0
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return nil, persistence("commit", err)
	}
	committed = true

	log.Info("order committed",
		zap.Int("menu_lines", len(o.MenuLines)),
		zap.Int("breakfast_lines", len(o.BreakfastLines)),
		zap.Bool("table_occupied", res.TableOccupied),
	)
	return res, nil
}

// Approve flips the approval flag once. The conditional UPDATE keeps two
// concurrent approvals from both succeeding.
func (r *repository) Approve(ctx context.Context, orderID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Approve"),
		zap.Int64("order_id", orderID),
	)

	var approved bool
	err := r.db.QueryRowContext(ctx, `SELECT approved FROM orders WHERE id = $1`, orderID).Scan(&approved)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to load order", zap.Error(err))
		return err
	}
	if approved {
		return ErrAlreadyApproved
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET approved = TRUE
		WHERE id = $1 AND approved = FALSE
	`, orderID)
	if err != nil {
		log.Error("failed to approve order", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyApproved
	}

	log.Info("order approved")
	return nil
}

const orderHeaderQuery = `
	SELECT
		o.id,
		o.total_price,
		o.order_type,
		o.delivery_address,
		o.table_id,
		t.number,
		o.promotion_id,
		o.session_id,
		o.user_id,
		o.approved,
		o.created_at
	FROM orders o
	LEFT JOIN restaurant_tables t ON t.id = o.table_id`

const orderLinesQuery = `
	SELECT
		oi.id,
		oi.order_id,
		oi.menu_item_id,
		mi.name,
		oi.supplement_id,
		s.name,
		oi.breakfast_id,
		b.name,
		oi.quantity,
		oi.unit_price,
		bo.id,
		bo.name,
		g.name
	FROM order_items oi
	LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
	LEFT JOIN supplements s ON s.id = oi.supplement_id
	LEFT JOIN breakfasts b ON b.id = oi.breakfast_id
	LEFT JOIN order_breakfast_options obo ON obo.order_item_id = oi.id
	LEFT JOIN breakfast_options bo ON bo.id = obo.option_id
	LEFT JOIN breakfast_option_groups g ON g.id = bo.group_id
	WHERE oi.order_id = ANY($1)
	ORDER BY oi.order_id, oi.id, bo.id`

func (r *repository) FetchOrders(ctx context.Context, preds ...Predicate) ([]OrderDetail, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FetchOrders"),
	)

	clause, args := where(preds)
	query := orderHeaderQuery + clause + " ORDER BY o.created_at DESC, o.id DESC"

	log.Debug("executing fetch orders query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []OrderDetail{}
	ids := []int64{}
	for rows.Next() {
		var (
			o       OrderDetail
			address sql.NullString
			tableID sql.NullInt64
			number  sql.NullInt64
			promoID sql.NullInt64
			session sql.NullString
			userID  sql.NullInt64
		)
		if err := rows.Scan(
			&o.ID,
			&o.TotalPrice,
			&o.OrderType,
			&address,
			&tableID,
			&number,
			&promoID,
			&session,
			&userID,
			&o.Approved,
			&o.CreatedAt,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}

		o.DeliveryAddress = nullStringPtr(address)
		o.TableID = nullInt64Ptr(tableID)
		o.PromotionID = nullInt64Ptr(promoID)
		o.SessionID = session.String
		if number.Valid {
			n := int(number.Int64)
			o.TableNumber = &n
		}
		if userID.Valid {
			u := uint(userID.Int64)
			o.UserID = &u
		}

		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := r.fetchLines(ctx, ids)
	if err != nil {
		log.Error("failed to fetch order lines", zap.Error(err))
		return nil, err
	}
	attachLines(orders, lines)

	log.Info("fetch orders success", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) fetchLines(ctx context.Context, orderIDs []int64) ([]lineRow, error) {
	rows, err := r.db.QueryContext(ctx, orderLinesQuery, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []lineRow
	for rows.Next() {
		var l lineRow
		if err := rows.Scan(
			&l.ItemID,
			&l.OrderID,
			&l.MenuItemID,
			&l.MenuItemName,
			&l.SupplementID,
			&l.SupplementName,
			&l.BreakfastID,
			&l.BreakfastName,
			&l.Quantity,
			&l.UnitPrice,
			&l.OptionID,
			&l.OptionName,
			&l.GroupName,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) GetOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	orders, err := r.FetchOrders(ctx, IDPredicate(orderID))
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return &orders[0], nil
}
