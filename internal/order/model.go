package order

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// CartItem is a client-submitted line. Quantities and ids are untrusted
// until they pass through the validator.
type CartItem struct {
	ProductID int64 `json:"id"`
	Quantity  int   `json:"qty"`
}

type BuyerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Item is an order line with the unit price snapshotted at order time.
// Later catalog price changes never affect historical orders.
type Item struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type Order struct {
	ID              string    `json:"orderId"`
	UserID          string    `json:"userId"`
	Buyer           BuyerInfo `json:"buyer"`
	Items           []Item    `json:"items"`
	Total           float64   `json:"total"`
	PaymentStatus   Status    `json:"paymentStatus"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
