// Package notify holds the buyer notification plumbing: a Kafka-driven
// notifier for status-change events and the interval polling client that
// calls the lifecycle manager's poll operation.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/Andrii485/computerstore-orders/internal/kafka"
	"github.com/Andrii485/computerstore-orders/internal/orders"
	"github.com/Andrii485/computerstore-orders/internal/redisx"
)

// Notifier consumes order.status events and emits each shipped/delivered
// notice exactly once. It shares the notice flags with the poll operation,
// so a buyer alerted through one path is never re-alerted through the other.
type Notifier struct {
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
}

// HandleStatusChanged is installed as the consumer handler for order.status.
func (n *Notifier) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	// dedup by event id: redeliveries are expected with manual commits
	dkey := fmt.Sprintf(redisx.KeyDedup, n.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, n.Redis, dkey); seen {
		return nil
	}
	_ = n.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	switch p.NewStatus {
	case orders.StatusShipped:
		return n.notice(ctx, p, "shipped", "order shipped")
	case orders.StatusDelivered:
		return n.notice(ctx, p, "delivered", "order delivered, awaiting buyer confirmation")
	default:
		return nil
	}
}

func (n *Notifier) notice(ctx context.Context, p orders.StatusChangedPayload, event, msg string) error {
	key := fmt.Sprintf(redisx.KeyNotice, p.OrderID, event)
	first, err := redisx.MarkOnce(ctx, n.Redis, key, redisx.TTLNotice)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	n.Log.Info(msg,
		zap.Int64("order_id", p.OrderID),
		zap.Int64("buyer_id", p.BuyerID))
	return nil
}
