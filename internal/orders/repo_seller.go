package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Advance moves the seller's order one step along the forward pipeline
// (PENDING -> PROCESSING -> SHIPPED -> DELIVERED). The buyer-facing
// transitions (complete, return, cancel) never go through here.
func (r *Repo) Advance(ctx context.Context, orderID, sellerID int64, next Status) (*Order, error) {
	switch next {
	case StatusProcessing, StatusShipped, StatusDelivered:
	default:
		return nil, ErrInvalidState
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE id=$1 AND seller_id=$2 FOR UPDATE`, orderID, sellerID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, next) {
		return nil, ErrInvalidState
	}
	if err := setStatus(ctx, tx, o, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("advance commit: %w", err)
	}
	return o, nil
}

// SellerRevenue reports the seller's completed sales with the platform fee
// withheld. Reporting only; balances carry the full order totals.
func (r *Repo) SellerRevenue(ctx context.Context, sellerID int64, feePercent decimal.Decimal) (*RevenueReport, error) {
	var gross decimal.Decimal
	var completed int
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(total_price), 0), COUNT(*)
		FROM orders WHERE seller_id=$1 AND status=$2`, sellerID, string(StatusCompleted)).
		Scan(&gross, &completed)
	if err != nil {
		return nil, err
	}
	return NewRevenueReport(sellerID, gross, completed, feePercent), nil
}

// NewRevenueReport applies the fee percentage to a gross total. Fee amounts
// are rounded to cents, half up.
func NewRevenueReport(sellerID int64, gross decimal.Decimal, completed int, feePercent decimal.Decimal) *RevenueReport {
	fee := gross.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
	return &RevenueReport{
		SellerID:   sellerID,
		Gross:      gross,
		FeePercent: feePercent,
		Fee:        fee,
		Net:        gross.Sub(fee),
		Completed:  completed,
	}
}
