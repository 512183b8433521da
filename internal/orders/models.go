package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64
	BuyerID         int64
	SellerID        int64
	ProductID       int64
	Qty             int
	TotalPrice      decimal.Decimal
	Status          Status
	Region          string
	PickupPointID   int64
	PaymentMethodID int64
	ContactName     string
	ContactPhone    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Product struct {
	ID        int64
	SellerID  int64
	Name      string
	Price     decimal.Decimal
	Stock     int
	Available bool
}

type CartLine struct {
	BuyerID   int64
	ProductID int64
	Qty       int
}

// CheckoutDetails carries the per-order fields the buyer fills in once for
// the whole cart; one order row is created per cart line.
type CheckoutDetails struct {
	Region          string
	PickupPointID   int64
	PaymentMethodID int64
	ContactName     string
	ContactPhone    string
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Change is one entry of a poll result: an order whose status differs from
// the caller's last-known snapshot. FirstShipped/FirstDelivered are set at
// most once per order across all polls and event deliveries.
type Change struct {
	OrderID        int64
	OldStatus      Status
	NewStatus      Status
	FirstShipped   bool
	FirstDelivered bool
}

// RevenueReport sums a seller's completed sales and applies the platform
// fee. The fee is withheld in reporting only, never inside lifecycle
// transactions.
type RevenueReport struct {
	SellerID   int64
	Gross      decimal.Decimal
	FeePercent decimal.Decimal
	Fee        decimal.Decimal
	Net        decimal.Decimal
	Completed  int
}

// StockShortage describes one product that blocked a checkout or a receipt
// confirmation.
type StockShortage struct {
	ProductID int64 `json:"product_id"`
	Required  int   `json:"required"`
	Available int   `json:"available"`
}
