package catalog

import (
	"net/http"
	"strconv"

	"resto-be/internal/logger"
	"resto-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	menu MenuReader
}

func NewHandler(menu MenuReader) *Handler {
	return &Handler{menu: menu}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /menu", h.Menu)
}

func queryInt32(r *http.Request, key string) (*int32, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return nil, false
	}
	v := int32(n)
	return &v, true
}

// Menu serves GET /menu?filter=&limit=&page=. Breakfasts are not paged.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "handler"),
		zap.String("method", "Menu"),
	)

	limit, ok := queryInt32(r, "limit")
	if !ok {
		utils.WriteJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	page, ok := queryInt32(r, "page")
	if !ok {
		utils.WriteJSONError(w, "page must be a positive integer", http.StatusBadRequest)
		return
	}
	var filter *string
	if f := r.URL.Query().Get("filter"); f != "" {
		filter = &f
	}

	items, err := h.menu.ListMenuItems(r.Context(), filter, limit, page)
	if err != nil {
		log.Error("failed to list menu items", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	breakfasts, err := h.menu.ListBreakfasts(r.Context())
	if err != nil {
		log.Error("failed to list breakfasts", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	itemsRes := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		itemsRes = append(itemsRes, mapMenuItem(m))
	}
	breakfastsRes := make([]breakfastResponse, 0, len(breakfasts))
	for _, b := range breakfasts {
		breakfastsRes = append(breakfastsRes, mapBreakfast(b))
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"items":      itemsRes,
		"breakfasts": breakfastsRes,
	})
}
