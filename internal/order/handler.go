package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"resto-be/internal/auth"
	"resto-be/internal/logger"
	"resto-be/internal/utils"

	"go.uber.org/zap"
)

const maxCartBytes = 1 << 20

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the order routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.Create)
	mux.HandleFunc("GET /orders", h.List)
	mux.HandleFunc("GET /orders/{id}", h.Get)
	mux.HandleFunc("POST /orders/{id}/approve", h.Approve)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		utils.WriteJSON(w, status, map[string]any{
			"error":  ErrValidation.Error(),
			"fields": verr.Fields,
		})
		return
	}

	utils.WriteJSONError(w, PublicMessage(err), status)
}

func pathID(r *http.Request) (int64, error) {
	id, ok := utils.ParseID(r.PathValue("id"))
	if !ok {
		return 0, &ValidationError{Fields: []FieldError{{Field: "id", Message: "must be a positive integer"}}}
	}
	return id, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cart Cart
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCartBytes))
	if err := dec.Decode(&cart); err != nil {
		writeError(w, r, &ValidationError{Fields: []FieldError{{Field: "body", Message: "malformed JSON"}}})
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), auth.ActorFromContext(r.Context()), cart)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"orderId": res.OrderID,
		"total":   res.Total.StringFixed(2),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), auth.ActorFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.svc.GetOrder(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.svc.ApproveOrder(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order approved successfully",
		"order":   order,
	})
}
