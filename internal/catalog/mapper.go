package catalog

type menuItemResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	SalePrice *string `json:"sale_price,omitempty"`
}

type optionResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	AdditionalPrice string `json:"additional_price"`
}

type groupResponse struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Options []optionResponse `json:"options"`
}

type breakfastResponse struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Price  string          `json:"price"`
	Groups []groupResponse `json:"groups"`
}

func mapMenuItem(m MenuItem) menuItemResponse {
	res := menuItemResponse{
		ID:    m.ID,
		Name:  m.Name,
		Price: m.Price.StringFixed(2),
	}
	if m.SalePrice != nil {
		sale := m.SalePrice.StringFixed(2)
		res.SalePrice = &sale
	}
	return res
}

func mapBreakfast(b BreakfastMenu) breakfastResponse {
	groups := make([]groupResponse, 0, len(b.Groups))
	for _, g := range b.Groups {
		opts := make([]optionResponse, 0, len(g.Options))
		for _, o := range g.Options {
			opts = append(opts, optionResponse{
				ID:              o.ID,
				Name:            o.Name,
				AdditionalPrice: o.AdditionalPrice.StringFixed(2),
			})
		}
		groups = append(groups, groupResponse{ID: g.ID, Name: g.Name, Options: opts})
	}

	return breakfastResponse{
		ID:     b.ID,
		Name:   b.Name,
		Price:  b.Price.StringFixed(2),
		Groups: groups,
	}
}
