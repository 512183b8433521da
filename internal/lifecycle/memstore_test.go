package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Andrii485/computerstore-orders/internal/orders"
)

// memStore is an in-memory Store with the same transactional semantics as
// the Postgres repo: a failing step leaves every row untouched.
type memStore struct {
	mu       sync.Mutex
	orders   map[int64]*orders.Order
	products map[int64]*orders.Product
	balances map[int64]decimal.Decimal // account row exists iff key present
	cart     []orders.CartLine
	nextID   int64
	now      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[int64]*orders.Order{},
		products: map[int64]*orders.Product{},
		balances: map[int64]decimal.Decimal{},
		nextID:   1,
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addOrder(o orders.Order) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = m.now
	}
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = &o
	if o.ID >= m.nextID {
		m.nextID = o.ID + 1
	}
}

func (m *memStore) addProduct(p orders.Product) { m.products[p.ID] = &p }

func (m *memStore) lockOrder(orderID, buyerID int64) (*orders.Order, error) {
	o, ok := m.orders[orderID]
	if !ok || o.BuyerID != buyerID {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func (m *memStore) Cancel(_ context.Context, orderID, buyerID int64) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.lockOrder(orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != orders.StatusProcessing {
		return nil, orders.ErrInvalidState
	}
	o.Status = orders.StatusCancelled
	o.UpdatedAt = m.now
	cp := *o
	return &cp, nil
}

func (m *memStore) ConfirmReceipt(_ context.Context, orderID, buyerID int64) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.lockOrder(orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != orders.StatusDelivered {
		return nil, orders.ErrNotFound
	}
	p, ok := m.products[o.ProductID]
	if !ok {
		return nil, orders.ErrProductNotFound
	}
	if p.Stock < o.Qty {
		return nil, orders.ErrInsufficientStock
	}
	bal, ok := m.balances[o.SellerID]
	if !ok {
		return nil, orders.ErrSellerNotFound
	}
	p.Stock -= o.Qty
	p.Available = p.Stock > 0
	m.balances[o.SellerID] = bal.Add(o.TotalPrice)
	o.Status = orders.StatusCompleted
	o.UpdatedAt = m.now
	cp := *o
	return &cp, nil
}

func (m *memStore) Return(_ context.Context, orderID, buyerID int64) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.lockOrder(orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != orders.StatusDelivered && o.Status != orders.StatusCompleted {
		return nil, orders.ErrInvalidState
	}
	if o.Status == orders.StatusCompleted {
		bal, ok := m.balances[o.SellerID]
		if !ok {
			return nil, orders.ErrSellerNotFound
		}
		m.balances[o.SellerID] = bal.Sub(o.TotalPrice)
	}
	if p, ok := m.products[o.ProductID]; ok {
		p.Stock += o.Qty
		p.Available = true
	}
	o.Status = orders.StatusReturned
	o.UpdatedAt = m.now
	cp := *o
	return &cp, nil
}

func (m *memStore) List(_ context.Context, buyerID int64, filter *orders.Status, sortOrder orders.SortOrder) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.Order
	for _, o := range m.orders {
		if o.BuyerID != buyerID {
			continue
		}
		if filter != nil && o.Status != *filter {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if sortOrder == orders.SortDesc {
			i, j = j, i
		}
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) InFlight(_ context.Context, buyerID int64) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.Order
	for _, o := range m.orders {
		if o.BuyerID != buyerID {
			continue
		}
		switch o.Status {
		case orders.StatusProcessing, orders.StatusShipped, orders.StatusDelivered:
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Checkout(_ context.Context, buyerID int64, d orders.CheckoutDetails) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lines []orders.CartLine
	for _, l := range m.cart {
		if l.BuyerID == buyerID {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, orders.ErrEmptyCart
	}

	// validate everything before mutating: all-or-nothing
	var shortages []orders.StockShortage
	for _, l := range lines {
		p, ok := m.products[l.ProductID]
		if !ok {
			return nil, orders.ErrProductNotFound
		}
		if !p.Available || p.Stock < l.Qty {
			shortages = append(shortages, orders.StockShortage{
				ProductID: l.ProductID, Required: l.Qty, Available: p.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &orders.StockError{Shortages: shortages}
	}

	var created []orders.Order
	for _, l := range lines {
		p := m.products[l.ProductID]
		p.Stock -= l.Qty
		p.Available = p.Stock > 0
		o := orders.Order{
			ID:              m.nextID,
			BuyerID:         buyerID,
			SellerID:        p.SellerID,
			ProductID:       l.ProductID,
			Qty:             l.Qty,
			TotalPrice:      p.Price.Mul(decimal.NewFromInt(int64(l.Qty))),
			Status:          orders.StatusPending,
			Region:          d.Region,
			PickupPointID:   d.PickupPointID,
			PaymentMethodID: d.PaymentMethodID,
			ContactName:     d.ContactName,
			ContactPhone:    d.ContactPhone,
			CreatedAt:       m.now,
			UpdatedAt:       m.now,
		}
		m.nextID++
		m.orders[o.ID] = &o
		created = append(created, o)
	}

	rest := m.cart[:0]
	for _, l := range m.cart {
		if l.BuyerID != buyerID {
			rest = append(rest, l)
		}
	}
	m.cart = rest
	return created, nil
}

func (m *memStore) Advance(_ context.Context, orderID, sellerID int64, next orders.Status) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch next {
	case orders.StatusProcessing, orders.StatusShipped, orders.StatusDelivered:
	default:
		return nil, orders.ErrInvalidState
	}
	o, ok := m.orders[orderID]
	if !ok || o.SellerID != sellerID {
		return nil, orders.ErrNotFound
	}
	if !orders.CanTransition(o.Status, next) {
		return nil, orders.ErrInvalidState
	}
	o.Status = next
	o.UpdatedAt = m.now
	cp := *o
	return &cp, nil
}

func (m *memStore) SellerRevenue(_ context.Context, sellerID int64, feePercent decimal.Decimal) (*orders.RevenueReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gross := decimal.Zero
	completed := 0
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.Status == orders.StatusCompleted {
			gross = gross.Add(o.TotalPrice)
			completed++
		}
	}
	return orders.NewRevenueReport(sellerID, gross, completed, feePercent), nil
}

var _ orders.Store = (*memStore)(nil)
