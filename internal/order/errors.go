package order

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("order not found")

// InputError reports malformed or missing request input.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// ProductNotFoundError reports cart ids with no matching product row.
type ProductNotFoundError struct {
	Missing []int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %v", e.Missing)
}

// StockError names the first cart item, in input order, whose quantity
// exceeds current stock.
type StockError struct {
	ProductName string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// AmountMismatchError reports a client-claimed total that differs from the
// recomputed total by more than one cent.
type AmountMismatchError struct {
	Calculated float64
	Provided   float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("order amount mismatch: calculated=%.2f provided=%.2f", e.Calculated, e.Provided)
}
