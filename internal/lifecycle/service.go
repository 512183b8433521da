// Package lifecycle is the order lifecycle manager: buyer-facing status
// transitions and the stock/balance side effects that must stay consistent
// with them, plus the checkout and seller-side collaborators that feed the
// same state machine.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/Andrii485/computerstore-orders/internal/kafka"
	"github.com/Andrii485/computerstore-orders/internal/orders"
	"github.com/Andrii485/computerstore-orders/internal/redisx"
)

// Publisher is what the service needs from a Kafka producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service wraps the transactional store with event publishing and the
// one-shot notification bookkeeping. It holds no per-order state between
// calls; the notice flags live in Redis.
type Service struct {
	Store       orders.Store
	Redis       *redis.Client
	Placed      Publisher // order.placed
	Status      Publisher // order.status
	ServiceName string
	FeePercent  decimal.Decimal
	Log         *zap.Logger
}

func (s *Service) Cancel(ctx context.Context, orderID, buyerID int64) (*orders.Order, error) {
	o, err := s.Store.Cancel(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order cancelled", zap.Int64("order_id", o.ID), zap.Int64("buyer_id", buyerID))
	s.publishStatus(o)
	return o, nil
}

func (s *Service) ConfirmReceipt(ctx context.Context, orderID, buyerID int64) (*orders.Order, error) {
	o, err := s.Store.ConfirmReceipt(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order completed",
		zap.Int64("order_id", o.ID),
		zap.Int64("seller_id", o.SellerID),
		zap.String("total_price", o.TotalPrice.String()))
	s.publishStatus(o)
	return o, nil
}

func (s *Service) Return(ctx context.Context, orderID, buyerID int64) (*orders.Order, error) {
	o, err := s.Store.Return(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order returned", zap.Int64("order_id", o.ID), zap.Int64("buyer_id", buyerID))
	s.publishStatus(o)
	return o, nil
}

func (s *Service) List(ctx context.Context, buyerID int64, filter *orders.Status, sort orders.SortOrder) ([]orders.Order, error) {
	return s.Store.List(ctx, buyerID, filter, sort)
}

// PollChanges diffs the buyer's in-flight orders against the caller's
// last-known snapshot. Orders the caller has never seen count as changed.
// The shipped/delivered annotations are set at most once per order across
// all polls, tracked by a Redis flag per (order, event).
func (s *Service) PollChanges(ctx context.Context, buyerID int64, known map[int64]orders.Status) ([]orders.Change, error) {
	current, err := s.Store.InFlight(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var out []orders.Change
	for _, o := range current {
		old, seen := known[o.ID]
		if seen && old == o.Status {
			continue
		}
		c := orders.Change{OrderID: o.ID, OldStatus: old, NewStatus: o.Status}
		switch o.Status {
		case orders.StatusShipped:
			c.FirstShipped = s.markNotice(ctx, o.ID, "shipped")
		case orders.StatusDelivered:
			c.FirstDelivered = s.markNotice(ctx, o.ID, "delivered")
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) markNotice(ctx context.Context, orderID int64, event string) bool {
	key := fmt.Sprintf(redisx.KeyNotice, orderID, event)
	first, err := redisx.MarkOnce(ctx, s.Redis, key, redisx.TTLNotice)
	if err != nil {
		s.Log.Warn("notice flag unavailable", zap.String("key", key), zap.Error(err))
		return false
	}
	return first
}

// Checkout creates the buyer's PENDING orders from the cart and announces
// each of them.
func (s *Service) Checkout(ctx context.Context, buyerID int64, d orders.CheckoutDetails) ([]orders.Order, error) {
	created, err := s.Store.Checkout(ctx, buyerID, d)
	if err != nil {
		return nil, err
	}
	for i := range created {
		o := &created[i]
		s.cacheStatus(ctx, o)
		if s.Placed != nil {
			env := s.envelope(orders.EventOrderPlaced, o.ID)
			env.Payload = kafkax.MustMarshal(orders.OrderPlacedPayload{
				OrderID:    o.ID,
				BuyerID:    o.BuyerID,
				SellerID:   o.SellerID,
				ProductID:  o.ProductID,
				Qty:        o.Qty,
				TotalPrice: o.TotalPrice,
			})
			s.Placed.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(env),
				kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
				kafkago.Header{Key: "x-event-version", Value: []byte("1")},
			)
		}
	}
	s.Log.Info("checkout complete", zap.Int64("buyer_id", buyerID), zap.Int("orders", len(created)))
	return created, nil
}

// Advance is the seller-side forward transition.
func (s *Service) Advance(ctx context.Context, orderID, sellerID int64, next orders.Status) (*orders.Order, error) {
	o, err := s.Store.Advance(ctx, orderID, sellerID, next)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order advanced",
		zap.Int64("order_id", o.ID),
		zap.Int64("seller_id", sellerID),
		zap.String("status", string(o.Status)))
	s.publishStatus(o)
	return o, nil
}

func (s *Service) SellerRevenue(ctx context.Context, sellerID int64) (*orders.RevenueReport, error) {
	return s.Store.SellerRevenue(ctx, sellerID, s.FeePercent)
}

func (s *Service) publishStatus(o *orders.Order) {
	s.cacheStatus(context.Background(), o)
	if s.Status == nil {
		return
	}
	env := s.envelope(orders.EventOrderStatusChanged, o.ID)
	env.Payload = kafkax.MustMarshal(orders.StatusChangedPayload{
		OrderID:   o.ID,
		BuyerID:   o.BuyerID,
		SellerID:  o.SellerID,
		NewStatus: o.Status,
		ChangedAt: o.UpdatedAt,
	})
	s.Status.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// cacheStatus keeps a short-lived status cache so reads stay off the
// orders table; the database remains the source of truth.
func (s *Service) cacheStatus(ctx context.Context, o *orders.Order) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = s.Redis.Set(ctx, key, string(o.Status), redisx.TTLStatusCache).Err()
}

func (s *Service) envelope(eventType string, orderID int64) orders.Envelope {
	return orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: fmt.Sprintf("%d", orderID),
	}
}
