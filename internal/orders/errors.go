package orders

import "errors"

// Lifecycle error kinds. NotFound and InvalidState are distinct kinds even
// though ConfirmReceipt surfaces a wrong status as NotFound, matching what
// the storefront has always shown buyers for that operation.
var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidState      = errors.New("transition not allowed from current status")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSellerNotFound    = errors.New("seller account not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrEmptyCart         = errors.New("cart is empty")
)

// StockError reports which products blocked a checkout. It matches
// ErrInsufficientStock under errors.Is.
type StockError struct {
	Shortages []StockShortage
}

func (e *StockError) Error() string { return ErrInsufficientStock.Error() }
func (e *StockError) Unwrap() error { return ErrInsufficientStock }
