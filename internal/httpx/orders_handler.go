package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Andrii485/computerstore-orders/internal/lifecycle"
	"github.com/Andrii485/computerstore-orders/internal/orders"
)

type OrdersHandler struct {
	Service *lifecycle.Service
	Log     *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Post("/orders/changes", h.pollChanges)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Post("/orders/{id}/confirm-receipt", h.confirmReceipt)
	r.Post("/orders/{id}/return", h.returnOrder)
	r.Post("/seller/orders/{id}/advance", h.advance)
	r.Get("/seller/{id}/revenue", h.revenue)
}

type buyerReq struct {
	BuyerID int64 `json:"buyer_id"`
}

type checkoutReq struct {
	BuyerID         int64  `json:"buyer_id"`
	Region          string `json:"region"`
	PickupPointID   int64  `json:"pickup_point_id"`
	PaymentMethodID int64  `json:"payment_method_id"`
	ContactName     string `json:"contact_name"`
	ContactPhone    string `json:"contact_phone"`
}

type advanceReq struct {
	SellerID int64         `json:"seller_id"`
	Status   orders.Status `json:"status"`
}

type knownStatus struct {
	OrderID int64         `json:"order_id"`
	Status  orders.Status `json:"status"`
}

type pollReq struct {
	BuyerID int64         `json:"buyer_id"`
	Known   []knownStatus `json:"known"`
}

type orderResp struct {
	OrderID int64         `json:"order_id"`
	Status  orders.Status `json:"status"`
}

type orderSummary struct {
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Qty        int             `json:"qty"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     orders.Status   `json:"status"`
	Region     string          `json:"region"`
	CreatedAt  string          `json:"created_at"`
}

type changeResp struct {
	OrderID        int64         `json:"order_id"`
	OldStatus      orders.Status `json:"old_status,omitempty"`
	NewStatus      orders.Status `json:"new_status"`
	FirstShipped   bool          `json:"first_shipped,omitempty"`
	FirstDelivered bool          `json:"first_delivered,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the lifecycle error kinds to HTTP statuses. Anything not a
// known kind is a store failure.
func (h *OrdersHandler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrSellerNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrInsufficientStock):
		body := map[string]any{"error": err.Error()}
		var se *orders.StockError
		if errors.As(err, &se) {
			body["shortages"] = se.Shortages
		}
		writeJSON(w, http.StatusConflict, body)
	case errors.Is(err, orders.ErrInvalidState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.Log.Error("store failure", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store failure"})
	}
}

func orderIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BuyerID <= 0 || req.ContactName == "" || req.ContactPhone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	created, err := h.Service.Checkout(r.Context(), req.BuyerID, orders.CheckoutDetails{
		Region:          req.Region,
		PickupPointID:   req.PickupPointID,
		PaymentMethodID: req.PaymentMethodID,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	out := make([]orderResp, 0, len(created))
	for _, o := range created {
		out = append(out, orderResp{OrderID: o.ID, Status: o.Status})
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	buyerID, err := strconv.ParseInt(r.URL.Query().Get("buyer_id"), 10, 64)
	if err != nil || buyerID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing buyer_id"})
		return
	}
	var filter *orders.Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := orders.Status(v)
		if !orders.IsValid(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
			return
		}
		filter = &s
	}
	sort := orders.SortAsc
	if r.URL.Query().Get("sort") == "desc" {
		sort = orders.SortDesc
	}

	list, err := h.Service.List(r.Context(), buyerID, filter, sort)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	out := make([]orderSummary, 0, len(list))
	for _, o := range list {
		out = append(out, orderSummary{
			OrderID:    o.ID,
			ProductID:  o.ProductID,
			Qty:        o.Qty,
			TotalPrice: o.TotalPrice,
			Status:     o.Status,
			Region:     o.Region,
			CreatedAt:  o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) pollChanges(w http.ResponseWriter, r *http.Request) {
	var req pollReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BuyerID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing buyer_id"})
		return
	}
	known := make(map[int64]orders.Status, len(req.Known))
	for _, k := range req.Known {
		known[k.OrderID] = k.Status
	}

	changes, err := h.Service.PollChanges(r.Context(), req.BuyerID, known)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	out := make([]changeResp, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeResp{
			OrderID:        c.OrderID,
			OldStatus:      c.OldStatus,
			NewStatus:      c.NewStatus,
			FirstShipped:   c.FirstShipped,
			FirstDelivered: c.FirstDelivered,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel)
}

func (h *OrdersHandler) confirmReceipt(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.ConfirmReceipt)
}

func (h *OrdersHandler) returnOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Return)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, orderID, buyerID int64) (*orders.Order, error)) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req buyerReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BuyerID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing buyer_id"})
		return
	}

	o, err := op(r.Context(), id, req.BuyerID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp{OrderID: o.ID, Status: o.Status})
}

func (h *OrdersHandler) advance(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req advanceReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SellerID <= 0 || !orders.IsValid(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	o, err := h.Service.Advance(r.Context(), id, req.SellerID, req.Status)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp{OrderID: o.ID, Status: o.Status})
}

func (h *OrdersHandler) revenue(w http.ResponseWriter, r *http.Request) {
	sellerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || sellerID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid seller id"})
		return
	}
	rep, err := h.Service.SellerRevenue(r.Context(), sellerID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seller_id":   rep.SellerID,
		"gross":       rep.Gross,
		"fee_percent": rep.FeePercent,
		"fee":         rep.Fee,
		"net":         rep.Net,
		"completed":   rep.Completed,
	})
}
