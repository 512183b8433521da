package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Andrii485/computerstore-orders/internal/lifecycle"
	"github.com/Andrii485/computerstore-orders/internal/orders"
)

// stubStore returns canned results; handler tests only exercise routing,
// decoding and error mapping.
type stubStore struct {
	order *orders.Order
	list  []orders.Order
	err   error
}

func (s *stubStore) result() (*orders.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubStore) Cancel(context.Context, int64, int64) (*orders.Order, error) { return s.result() }
func (s *stubStore) ConfirmReceipt(context.Context, int64, int64) (*orders.Order, error) {
	return s.result()
}
func (s *stubStore) Return(context.Context, int64, int64) (*orders.Order, error) { return s.result() }
func (s *stubStore) List(context.Context, int64, *orders.Status, orders.SortOrder) ([]orders.Order, error) {
	return s.list, s.err
}
func (s *stubStore) InFlight(context.Context, int64) ([]orders.Order, error) { return s.list, s.err }
func (s *stubStore) Checkout(context.Context, int64, orders.CheckoutDetails) ([]orders.Order, error) {
	return s.list, s.err
}
func (s *stubStore) Advance(context.Context, int64, int64, orders.Status) (*orders.Order, error) {
	return s.result()
}
func (s *stubStore) SellerRevenue(_ context.Context, sellerID int64, fee decimal.Decimal) (*orders.RevenueReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return orders.NewRevenueReport(sellerID, decimal.Zero, 0, fee), nil
}

func newTestServer(t *testing.T, store orders.Store) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := &lifecycle.Service{
		Store:       store,
		Redis:       rdb,
		ServiceName: "api-test",
		FeePercent:  decimal.RequireFromString("5"),
		Log:         zap.NewNop(),
	}
	router := NewRouter()
	h := &OrdersHandler{Service: svc, Log: zap.NewNop()}
	h.Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCancelEndpoint(t *testing.T) {
	store := &stubStore{order: &orders.Order{ID: 7, BuyerID: 1, Status: orders.StatusCancelled}}
	srv := newTestServer(t, store)

	resp := post(t, srv, "/orders/7/cancel", `{"buyer_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		OrderID int64         `json:"order_id"`
		Status  orders.Status `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(7), out.OrderID)
	assert.Equal(t, orders.StatusCancelled, out.Status)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", orders.ErrNotFound, http.StatusNotFound},
		{"seller missing", orders.ErrSellerNotFound, http.StatusNotFound},
		{"invalid state", orders.ErrInvalidState, http.StatusConflict},
		{"insufficient stock", orders.ErrInsufficientStock, http.StatusConflict},
		{"store failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &stubStore{err: tc.err})
			resp := post(t, srv, "/orders/7/confirm-receipt", `{"buyer_id":1}`)
			assert.Equal(t, tc.code, resp.StatusCode)
		})
	}
}

func TestTransitionRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &stubStore{})

	resp := post(t, srv, "/orders/abc/return", `{"buyer_id":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv, "/orders/7/return", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv, "/orders/7/return", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "buyer_id required")
}

func TestListOrdersEndpoint(t *testing.T) {
	store := &stubStore{list: []orders.Order{
		{ID: 1, BuyerID: 1, ProductID: 4, Qty: 2, TotalPrice: decimal.RequireFromString("99.90"),
			Status: orders.StatusProcessing},
	}}
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/orders?buyer_id=1&status=PROCESSING&sort=desc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "PROCESSING", out[0]["status"])
}

func TestListOrdersValidation(t *testing.T) {
	srv := newTestServer(t, &stubStore{})

	resp, err := http.Get(srv.URL + "/orders")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "buyer_id required")

	resp, err = http.Get(srv.URL + "/orders?buyer_id=1&status=PAID")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown status rejected")
}

func TestCheckoutEndpoint(t *testing.T) {
	store := &stubStore{list: []orders.Order{
		{ID: 11, Status: orders.StatusPending},
		{ID: 12, Status: orders.StatusPending},
	}}
	srv := newTestServer(t, store)

	resp := post(t, srv, "/checkout",
		`{"buyer_id":1,"region":"west","contact_name":"A","contact_phone":"555"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out, 2)
}

func TestCheckoutEmptyCartMapsToBadRequest(t *testing.T) {
	srv := newTestServer(t, &stubStore{err: orders.ErrEmptyCart})
	resp := post(t, srv, "/checkout",
		`{"buyer_id":1,"contact_name":"A","contact_phone":"555"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPollChangesEndpoint(t *testing.T) {
	store := &stubStore{list: []orders.Order{
		{ID: 2, BuyerID: 1, Status: orders.StatusShipped},
	}}
	srv := newTestServer(t, store)

	resp := post(t, srv, "/orders/changes",
		`{"buyer_id":1,"known":[{"order_id":2,"status":"PROCESSING"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "SHIPPED", out[0]["new_status"])
	assert.Equal(t, true, out[0]["first_shipped"])
}

func TestAdvanceEndpoint(t *testing.T) {
	store := &stubStore{order: &orders.Order{ID: 7, SellerID: 9, Status: orders.StatusShipped}}
	srv := newTestServer(t, store)

	resp := post(t, srv, "/seller/orders/7/advance", `{"seller_id":9,"status":"SHIPPED"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, srv, "/seller/orders/7/advance", `{"seller_id":9,"status":"NOPE"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRevenueEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubStore{})

	resp, err := http.Get(srv.URL + "/seller/9/revenue")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.EqualValues(t, 9, out["seller_id"])
}
