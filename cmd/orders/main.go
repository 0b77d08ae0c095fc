// Command orders prints recent orders for staff working without the admin panel.
//
//	orders -range day -approved 0
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"resto-be/internal/config"
	"resto-be/internal/db"
	"resto-be/internal/logger"
	"resto-be/internal/order"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

func main() {
	timeRange := flag.String("range", "day", "time range: hour, day, yesterday, week or month (empty for all)")
	approved := flag.String("approved", "", "1 for approved only, 0 for pending only")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, order.NewRepository(database), *timeRange, *approved, time.Now(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type orderFetcher interface {
	FetchOrders(ctx context.Context, preds ...order.Predicate) ([]order.OrderDetail, error)
}

func run(ctx context.Context, repo orderFetcher, timeRange, approved string, now time.Time, out io.Writer) error {
	q := url.Values{}
	if timeRange != "" {
		q.Set("time_range", timeRange)
	}
	if approved != "" {
		q.Set("approved", approved)
	}

	filter, err := order.ParseListFilter(q)
	if err != nil {
		return err
	}
	preds, err := filter.Predicates(now)
	if err != nil {
		return err
	}

	orders, err := repo.FetchOrders(ctx, preds...)
	if err != nil {
		return fmt.Errorf("failed to fetch orders: %w", err)
	}
	return printOrders(out, orders)
}

func printOrders(out io.Writer, orders []order.OrderDetail) error {
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Created", "Type", "Where", "Items", "Total", "Status")

	for _, o := range orders {
		status := "pending"
		if o.Approved {
			status = "approved"
		}
		row := []string{
			fmt.Sprint(o.ID),
			o.CreatedAt.Format("2006-01-02 15:04"),
			string(o.OrderType),
			destination(o),
			summarize(o),
			o.TotalPrice.StringFixed(2),
			status,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}

	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d order(s)\n", len(orders))
	return err
}

func destination(o order.OrderDetail) string {
	switch {
	case o.TableNumber != nil:
		return fmt.Sprintf("table %d", *o.TableNumber)
	case o.DeliveryAddress != nil:
		return *o.DeliveryAddress
	}
	return "-"
}

// summarize renders lines as "2x Burger (+Cheese), 1x Full [Fried, Coffee]".
func summarize(o order.OrderDetail) string {
	parts := make([]string, 0, len(o.Items)+len(o.BreakfastItems))
	for _, it := range o.Items {
		s := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if it.SupplementName != nil {
			s += " (+" + *it.SupplementName + ")"
		}
		parts = append(parts, s)
	}
	for _, b := range o.BreakfastItems {
		opts := make([]string, 0, len(b.Options))
		for _, opt := range b.Options {
			opts = append(opts, opt.Name)
		}
		s := fmt.Sprintf("%dx %s", b.Quantity, b.Name)
		if len(opts) > 0 {
			s += " [" + strings.Join(opts, ", ") + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
