package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Andrii485/computerstore-orders/internal/orders"
)

// ChangeSource is the poll operation the client calls on an interval.
type ChangeSource interface {
	PollChanges(ctx context.Context, buyerID int64, known map[int64]orders.Status) ([]orders.Change, error)
}

// Poller is the explicit polling client replacing the desktop UI timer: it
// holds a last-seen-status map per order, calls PollChanges on a fixed
// cadence and skips a tick when the previous poll is still in flight.
type Poller struct {
	Source   ChangeSource
	BuyerID  int64
	Interval time.Duration
	Log      *zap.Logger

	mu    sync.Mutex // reentrancy guard + protects known
	known map[int64]orders.Status
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	if p.Interval <= 0 {
		p.Interval = 30 * time.Second
	}
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go p.Poll(ctx)
		}
	}
}

// Poll performs one poll cycle. Returns false if a previous cycle was still
// running and this one was skipped.
func (p *Poller) Poll(ctx context.Context) bool {
	if !p.mu.TryLock() {
		p.Log.Debug("previous poll still in flight, skipping tick")
		return false
	}
	defer p.mu.Unlock()

	if p.known == nil {
		p.known = make(map[int64]orders.Status)
	}
	changes, err := p.Source.PollChanges(ctx, p.BuyerID, p.known)
	if err != nil {
		p.Log.Warn("poll failed", zap.Error(err))
		return true
	}

	for _, c := range changes {
		p.known[c.OrderID] = c.NewStatus
		switch {
		case c.FirstShipped:
			p.Log.Info("order shipped", zap.Int64("order_id", c.OrderID))
		case c.FirstDelivered:
			p.Log.Info("order delivered, confirm receipt to complete it",
				zap.Int64("order_id", c.OrderID))
		default:
			p.Log.Info("order status changed",
				zap.Int64("order_id", c.OrderID),
				zap.String("status", string(c.NewStatus)))
		}
	}
	return true
}

// Known returns a copy of the last-seen snapshot, for inspection.
func (p *Poller) Known() map[int64]orders.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[int64]orders.Status, len(p.known))
	for k, v := range p.known {
		out[k] = v
	}
	return out
}
