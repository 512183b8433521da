package orders

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID    int64           `json:"order_id"`
	BuyerID    int64           `json:"buyer_id"`
	SellerID   int64           `json:"seller_id"`
	ProductID  int64           `json:"product_id"`
	Qty        int             `json:"qty"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type StatusChangedPayload struct {
	OrderID   int64     `json:"order_id"`
	BuyerID   int64     `json:"buyer_id"`
	SellerID  int64     `json:"seller_id"`
	NewStatus Status    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
