package order

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sort"
	"strings"
)

type fpMenuLine struct {
	ID         int64  `json:"i"`
	Qty        int    `json:"q"`
	Price      string `json:"p"`
	Supplement int64  `json:"s"`
}

type fpBreakfastLine struct {
	ID      int64   `json:"i"`
	Qty     int     `json:"q"`
	Price   string  `json:"p"`
	Options []int64 `json:"o"`
}

type fpPayload struct {
	Items      []fpMenuLine      `json:"items"`
	Breakfasts []fpBreakfastLine `json:"breakfasts"`
	TableID    int64             `json:"table"`
	Type       OrderType         `json:"type"`
	Total      string            `json:"total"`
	RequestID  string            `json:"request_id"`
}

// Fingerprint hashes the normalized cart. Line order, option order and
// price formatting ("10" vs "10.00") do not change the result.
func Fingerprint(cart Cart) string {
	p := fpPayload{
		Type:      cart.OrderType,
		Total:     cart.TotalPrice.StringFixed(2),
		RequestID: strings.ToLower(cart.RequestID),
	}
	if cart.TableID != nil {
		p.TableID = *cart.TableID
	}

	for _, l := range cart.Items {
		line := fpMenuLine{ID: l.MenuItemID, Qty: l.Quantity, Price: l.UnitPrice.StringFixed(2)}
		if l.SupplementID != nil {
			line.Supplement = *l.SupplementID
		}
		p.Items = append(p.Items, line)
	}
	sort.Slice(p.Items, func(i, j int) bool {
		a, b := p.Items[i], p.Items[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Supplement != b.Supplement {
			return a.Supplement < b.Supplement
		}
		if a.Qty != b.Qty {
			return a.Qty < b.Qty
		}
		return a.Price < b.Price
	})

	for _, l := range cart.BreakfastItems {
		opts := slices.Clone(l.OptionIDs)
		slices.Sort(opts)
		p.Breakfasts = append(p.Breakfasts, fpBreakfastLine{
			ID:      l.BreakfastID,
			Qty:     l.Quantity,
			Price:   l.UnitPrice.StringFixed(2),
			Options: opts,
		})
	}
	sort.Slice(p.Breakfasts, func(i, j int) bool {
		a, b := p.Breakfasts[i], p.Breakfasts[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if c := slices.Compare(a.Options, b.Options); c != 0 {
			return c < 0
		}
		if a.Qty != b.Qty {
			return a.Qty < b.Qty
		}
		return a.Price < b.Price
	})

	// fpPayload holds only ints, strings and slices of them
	body, _ := json.Marshal(p)
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
