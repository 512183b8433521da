package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Checkout turns the buyer's cart into PENDING orders, one row per cart
// line, inside a single transaction: lock stock per product (FOR UPDATE),
// verify availability, decrement, insert the order, clear the cart. Any
// shortage rolls the whole checkout back.
func (r *Repo) Checkout(ctx context.Context, buyerID int64, d CheckoutDetails) ([]Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT product_id, qty FROM cart_items WHERE buyer_id=$1 ORDER BY product_id`, buyerID)
	if err != nil {
		return nil, err
	}
	var lines []CartLine
	for rows.Next() {
		l := CartLine{BuyerID: buyerID}
		if err := rows.Scan(&l.ProductID, &l.Qty); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var created []Order
	var shortages []StockShortage
	for _, l := range lines {
		var sellerID int64
		var price decimal.Decimal
		var stock int
		var available bool
		err := tx.QueryRow(ctx, `SELECT seller_id, price, stock, available
			FROM products WHERE id=$1 FOR UPDATE`, l.ProductID).Scan(&sellerID, &price, &stock, &available)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}
		if !available || stock < l.Qty {
			shortages = append(shortages, StockShortage{
				ProductID: l.ProductID, Required: l.Qty, Available: stock,
			})
			continue
		}

		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, available = (stock - $2) > 0
			WHERE id=$1`, l.ProductID, l.Qty); err != nil {
			return nil, err
		}

		total := price.Mul(decimal.NewFromInt(int64(l.Qty)))
		row := tx.QueryRow(ctx, `
			INSERT INTO orders(buyer_id, seller_id, product_id, qty, total_price, status,
			                   region, pickup_point_id, payment_method_id, contact_name, contact_phone)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING `+orderColumns,
			buyerID, sellerID, l.ProductID, l.Qty, total, string(StatusPending),
			d.Region, d.PickupPointID, d.PaymentMethodID, d.ContactName, d.ContactPhone)
		o, err := scanOrder(row)
		if err != nil {
			return nil, err
		}
		created = append(created, *o)
	}
	if len(shortages) > 0 {
		return nil, &StockError{Shortages: shortages} // rollback via defer
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE buyer_id=$1`, buyerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("checkout commit: %w", err)
	}
	return created, nil
}
