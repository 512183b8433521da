package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{order_id}
	KeyOrderStatus = "order_status:%d"

	// Dedup of consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// One-shot buyer notices: notice:{order_id}:{event} (event = shipped|delivered).
	// Set once, checked by both the poll operation and the notifier so a
	// notice is never emitted twice.
	KeyNotice = "notice:%d:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLNotice      = 30 * 24 * time.Hour
)
