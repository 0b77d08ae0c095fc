package order

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"resto-be/internal/catalog"

	"github.com/shopspring/decimal"
)

var (
	priceTolerance = decimal.New(1, -2)
	hundred        = decimal.NewFromInt(100)
)

type PricedMenuLine struct {
	MenuLine
	// Expected is the catalog unit price, before any promotion.
	Expected  decimal.Decimal
	LineTotal decimal.Decimal
}

type PricedBreakfastLine struct {
	BreakfastLine
	Expected  decimal.Decimal
	LineTotal decimal.Decimal
}

// Quote is the authoritative pricing of a cart. Breakfast lines sharing a
// breakfast and option set are already merged.
type Quote struct {
	MenuLines      []PricedMenuLine
	BreakfastLines []PricedBreakfastLine
	Promotion      *catalog.Promotion
	Total          decimal.Decimal
}

// Reconciler recomputes every cart price from the catalog.
type Reconciler struct {
	catalog catalog.Repository
	now     func() time.Time
}

func NewReconciler(cat catalog.Repository, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{catalog: cat, now: now}
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(priceTolerance)
}

// discount applies pct percent off total, rounded half-up to cents.
func discount(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

// Reconcile validates each line against current catalog state and the
// declared total. It fails with *CatalogViolation, *PriceMismatch or a
// store error and performs no writes.
func (r *Reconciler) Reconcile(ctx context.Context, cart Cart) (*Quote, error) {
	q := &Quote{Total: decimal.Zero}

	if cart.PromotionID != nil {
		promo, err := r.catalog.GetPromotion(ctx, *cart.PromotionID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalogViolation("promotion %d does not exist", *cart.PromotionID)
		}
		if err != nil {
			return nil, err
		}
		// Outside its window the promotion is ignored and lines keep full price.
		if promo.ActiveAt(r.now()) {
			q.Promotion = &promo
		}
	}

	for _, line := range cart.Items {
		priced, err := r.priceMenuLine(ctx, line)
		if err != nil {
			return nil, err
		}
		priced.LineTotal = priced.Expected.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if q.Promotion != nil && q.Promotion.Applies(line.MenuItemID) {
			priced.LineTotal = discount(priced.LineTotal, q.Promotion.DiscountPercentage)
		}
		q.MenuLines = append(q.MenuLines, priced)
	}

	var breakfasts []PricedBreakfastLine
	for _, line := range cart.BreakfastItems {
		priced, err := r.priceBreakfastLine(ctx, line)
		if err != nil {
			return nil, err
		}
		breakfasts = append(breakfasts, priced)
	}
	q.BreakfastLines = mergeBreakfastLines(breakfasts)

	for i := range q.BreakfastLines {
		l := &q.BreakfastLines[i]
		l.LineTotal = l.Expected.Mul(decimal.NewFromInt(int64(l.Quantity)))
		if q.Promotion != nil && q.Promotion.MenuItemID == nil {
			l.LineTotal = discount(l.LineTotal, q.Promotion.DiscountPercentage)
		}
	}

	for _, l := range q.MenuLines {
		q.Total = q.Total.Add(l.LineTotal)
	}
	for _, l := range q.BreakfastLines {
		q.Total = q.Total.Add(l.LineTotal)
	}

	if !withinTolerance(cart.TotalPrice, q.Total) {
		return nil, &PriceMismatch{
			Expected: q.Total,
			Provided: cart.TotalPrice,
			Message:  "total price mismatch",
		}
	}

	return q, nil
}

func (r *Reconciler) priceMenuLine(ctx context.Context, line MenuLine) (PricedMenuLine, error) {
	item, err := r.catalog.GetMenuItem(ctx, line.MenuItemID)
	if errors.Is(err, catalog.ErrNotFound) {
		return PricedMenuLine{}, catalogViolation("menu item %d does not exist", line.MenuItemID)
	}
	if err != nil {
		return PricedMenuLine{}, err
	}
	if !item.Available {
		return PricedMenuLine{}, catalogViolation("menu item %d is not available", line.MenuItemID)
	}

	expected := item.EffectivePrice()
	if line.SupplementID != nil {
		extra, err := r.catalog.GetItemSupplement(ctx, line.MenuItemID, *line.SupplementID)
		if errors.Is(err, catalog.ErrNotFound) {
			return PricedMenuLine{}, catalogViolation("supplement %d is not offered for menu item %d", *line.SupplementID, line.MenuItemID)
		}
		if err != nil {
			return PricedMenuLine{}, err
		}
		expected = expected.Add(extra)
	}

	if !withinTolerance(line.UnitPrice, expected) {
		return PricedMenuLine{}, &PriceMismatch{
			Expected: expected,
			Provided: line.UnitPrice,
			Message:  "price mismatch for menu item " + strconv.FormatInt(line.MenuItemID, 10),
		}
	}

	return PricedMenuLine{MenuLine: line, Expected: expected}, nil
}

func (r *Reconciler) priceBreakfastLine(ctx context.Context, line BreakfastLine) (PricedBreakfastLine, error) {
	id := line.BreakfastID

	b, err := r.catalog.GetBreakfast(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return PricedBreakfastLine{}, catalogViolation("breakfast %d does not exist", id)
	}
	if err != nil {
		return PricedBreakfastLine{}, err
	}
	if !b.Available {
		return PricedBreakfastLine{}, catalogViolation("breakfast %d is not available", id)
	}

	groups, err := r.catalog.GetBreakfastGroups(ctx, id)
	if err != nil {
		return PricedBreakfastLine{}, err
	}

	optionIDs := slices.Clone(line.OptionIDs)
	slices.Sort(optionIDs)
	if len(slices.Compact(slices.Clone(optionIDs))) != len(optionIDs) {
		return PricedBreakfastLine{}, catalogViolation("breakfast %d has an option selected more than once", id)
	}

	switch {
	case len(groups) > 0 && len(optionIDs) == 0:
		return PricedBreakfastLine{}, catalogViolation("breakfast %d requires one option per group", id)
	case len(groups) == 0 && len(optionIDs) > 0:
		return PricedBreakfastLine{}, catalogViolation("breakfast %d has no options", id)
	}

	expected := b.Price
	if len(groups) > 0 {
		options, err := r.catalog.GetBreakfastOptions(ctx, id, optionIDs)
		if err != nil {
			return PricedBreakfastLine{}, err
		}
		if len(options) != len(optionIDs) {
			return PricedBreakfastLine{}, catalogViolation("breakfast %d: options %s are not all offered", id, joinIDs(optionIDs))
		}

		perGroup := make(map[int64]int, len(groups))
		for _, o := range options {
			perGroup[o.GroupID]++
			expected = expected.Add(o.AdditionalPrice)
		}
		for _, g := range groups {
			if perGroup[g.ID] != 1 {
				return PricedBreakfastLine{}, catalogViolation("breakfast %d requires exactly one option from group %q", id, g.Name)
			}
		}
	}

	if !withinTolerance(line.UnitPrice, expected) {
		return PricedBreakfastLine{}, &PriceMismatch{
			Expected: expected,
			Provided: line.UnitPrice,
			Message:  "price mismatch for breakfast " + strconv.FormatInt(id, 10),
		}
	}

	line.OptionIDs = optionIDs
	return PricedBreakfastLine{BreakfastLine: line, Expected: expected}, nil
}

// mergeBreakfastLines sums quantities of lines with the same breakfast and
// the same option set, keeping first-seen order.
func mergeBreakfastLines(lines []PricedBreakfastLine) []PricedBreakfastLine {
	var merged []PricedBreakfastLine
	index := make(map[string]int, len(lines))

	for _, l := range lines {
		key := strconv.FormatInt(l.BreakfastID, 10) + "|" + joinIDs(l.OptionIDs)
		if i, ok := index[key]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
