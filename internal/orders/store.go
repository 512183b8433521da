package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the typed surface over the order, product stock and account
// balance rows. Every mutating method runs as one transaction: either the
// status change and its stock/balance side effects all commit, or none do.
type Store interface {
	// Buyer-facing lifecycle.
	Cancel(ctx context.Context, orderID, buyerID int64) (*Order, error)
	ConfirmReceipt(ctx context.Context, orderID, buyerID int64) (*Order, error)
	Return(ctx context.Context, orderID, buyerID int64) (*Order, error)
	List(ctx context.Context, buyerID int64, filter *Status, sort SortOrder) ([]Order, error)
	InFlight(ctx context.Context, buyerID int64) ([]Order, error)

	// Checkout collaborator: consumes the cart, creates PENDING orders.
	Checkout(ctx context.Context, buyerID int64, d CheckoutDetails) ([]Order, error)

	// Seller-facing collaborators.
	Advance(ctx context.Context, orderID, sellerID int64, next Status) (*Order, error)
	SellerRevenue(ctx context.Context, sellerID int64, feePercent decimal.Decimal) (*RevenueReport, error)
}
