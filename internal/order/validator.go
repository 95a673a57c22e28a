package order

import (
	"context"
	"math"

	"github.com/pullum327/Reactorder/internal/catalog"
)

// ValidatedItem is a cart line annotated with the authoritative unit price.
type ValidatedItem struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"actualPrice"`
	ItemTotal float64 `json:"itemTotal"`
}

// Validator recomputes order totals from catalog data. The total it returns
// is the only money amount trusted downstream; client-claimed totals are
// never persisted or charged directly.
type Validator struct {
	catalog catalog.Repository
}

func NewValidator(c catalog.Repository) *Validator {
	return &Validator{catalog: c}
}

// ValidateCart checks product existence and stock for every line, in input
// order, and returns the annotated lines plus the recomputed total.
func (v *Validator) ValidateCart(ctx context.Context, items []CartItem) ([]ValidatedItem, float64, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	found, err := v.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, 0, &ProductNotFoundError{Missing: missing}
	}

	var total float64
	validated := make([]ValidatedItem, 0, len(items))
	for _, it := range items {
		p := found[it.ProductID]
		if it.Quantity > p.Stock {
			return nil, 0, &StockError{ProductName: p.Name}
		}

		itemTotal := p.Price * float64(it.Quantity)
		total += itemTotal
		validated = append(validated, ValidatedItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			ItemTotal: itemTotal,
		})
	}

	return validated, total, nil
}

// ValidateCartTotal additionally rejects claimed totals more than one cent
// off the recomputed total. Rounding to cents absorbs binary float noise, so
// a claim exactly one cent off still passes while two cents off does not.
func (v *Validator) ValidateCartTotal(ctx context.Context, items []CartItem, claimedTotal float64) ([]ValidatedItem, float64, error) {
	validated, total, err := v.ValidateCart(ctx, items)
	if err != nil {
		return nil, 0, err
	}

	if math.Round(math.Abs(total-claimedTotal)*100) > 1 {
		return nil, 0, &AmountMismatchError{Calculated: total, Provided: claimedTotal}
	}

	return validated, total, nil
}
