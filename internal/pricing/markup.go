package pricing

import "errors"

var (
	ErrNegativeSupplierPrice = errors.New("supplier price cannot be negative")
	ErrNegativeMarkup        = errors.New("markup percentage cannot be negative")
)

// BasePrice is the only place the catalog sell price is derived:
// supplier_price * (1 + markup/100).
func BasePrice(supplierPrice, markup float64) float64 {
	return supplierPrice * (1 + markup/100)
}

// ValidateMarkup rejects negative inputs to BasePrice.
func ValidateMarkup(supplierPrice, markup float64) error {
	if supplierPrice < 0 {
		return ErrNegativeSupplierPrice
	}
	if markup < 0 {
		return ErrNegativeMarkup
	}
	return nil
}
