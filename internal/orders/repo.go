package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements Store on Postgres. Each lifecycle method locks the order
// row FOR UPDATE and re-checks status inside the transaction, so two racing
// calls on the same order serialize and the loser sees the new status.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const orderColumns = `id, buyer_id, seller_id, product_id, qty, total_price, status,
       region, pickup_point_id, payment_method_id, contact_name, contact_phone,
       created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ProductID, &o.Qty, &o.TotalPrice, &status,
		&o.Region, &o.PickupPointID, &o.PaymentMethodID, &o.ContactName, &o.ContactPhone,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

// lockOrder reads the buyer's order under FOR UPDATE inside tx.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID, buyerID int64) (*Order, error) {
	row := tx.QueryRow(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE id=$1 AND buyer_id=$2 FOR UPDATE`, orderID, buyerID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func setStatus(ctx context.Context, tx pgx.Tx, o *Order, next Status) error {
	err := tx.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
		RETURNING updated_at`, o.ID, string(next)).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	o.Status = next
	return nil
}

// Cancel sets a PROCESSING order to CANCELLED. Stock is not restored: the
// checkout-time decrement stays applied, matching the storefront's existing
// behavior.
func (r *Repo) Cancel(ctx context.Context, orderID, buyerID int64) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusProcessing {
		return nil, ErrInvalidState
	}
	if err := setStatus(ctx, tx, o, StatusCancelled); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("cancel commit: %w", err)
	}
	return o, nil
}

// ConfirmReceipt moves a DELIVERED order to COMPLETED: decrements product
// stock by the order qty (on top of the decrement checkout already applied;
// see DESIGN.md), clears availability at zero and credits the seller's
// balance by the order total. A wrong status reports ErrNotFound, which is
// what this operation has always shown the buyer.
func (r *Repo) ConfirmReceipt(ctx context.Context, orderID, buyerID int64) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDelivered {
		return nil, ErrNotFound
	}

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, o.ProductID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if stock < o.Qty {
		return nil, ErrInsufficientStock
	}
	if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, available = (stock - $2) > 0
		WHERE id=$1`, o.ProductID, o.Qty); err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $2 WHERE user_id=$1`,
		o.SellerID, o.TotalPrice)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, ErrSellerNotFound
	}

	if err := setStatus(ctx, tx, o, StatusCompleted); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("confirm receipt commit: %w", err)
	}
	return o, nil
}

// Return reverses a DELIVERED or COMPLETED order: the completed case debits
// the seller by exactly the amount credited at confirmation, then stock is
// restored and the product marked available again.
func (r *Repo) Return(ctx context.Context, orderID, buyerID int64) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDelivered && o.Status != StatusCompleted {
		return nil, ErrInvalidState
	}

	if o.Status == StatusCompleted {
		ct, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $2 WHERE user_id=$1`,
			o.SellerID, o.TotalPrice)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() != 1 {
			return nil, ErrSellerNotFound
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2, available = TRUE
		WHERE id=$1`, o.ProductID, o.Qty); err != nil {
		return nil, err
	}

	if err := setStatus(ctx, tx, o, StatusReturned); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("return commit: %w", err)
	}
	return o, nil
}

// List returns the buyer's orders, optionally filtered by exact status,
// ordered by placement time.
func (r *Repo) List(ctx context.Context, buyerID int64, filter *Status, sort SortOrder) ([]Order, error) {
	dir := "ASC"
	if sort == SortDesc {
		dir = "DESC"
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id=$1`
	args := []any{buyerID}
	if filter != nil {
		q += ` AND status=$2`
		args = append(args, string(*filter))
	}
	q += ` ORDER BY created_at ` + dir

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// InFlight returns the buyer's orders still moving through the seller-side
// pipeline, the set the poll operation diffs against.
func (r *Repo) InFlight(ctx context.Context, buyerID int64) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE buyer_id=$1 AND status = ANY($2) ORDER BY created_at`, buyerID, statusStrings(InFlightStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
