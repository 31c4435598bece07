package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

// FieldError names the offending field of an unsaved quote payload.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Err.Error() + ": " + e.Field }

func (e *FieldError) Unwrap() error { return e.Err }

func missing(field string) error { return &FieldError{Field: field, Err: ErrMissingField} }

func badField(field string) error { return &FieldError{Field: field, Err: ErrInvalidField} }

type quoteData struct {
	QuoteNumber     string         `json:"quote_number"`
	CustomerID      quote.Number   `json:"customer_id"`
	CustomerName    string         `json:"customer_name"`
	CustomerCompany string         `json:"customer_company"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerAddress string         `json:"customer_address"`
	City            string         `json:"city"`
	State           string         `json:"state"`
	PostalCode      string         `json:"postal_code"`
	CommissionRate  quote.Number   `json:"commission_rate"`
	Items           []quoteDataRow `json:"items"`
}

type quoteDataRow struct {
	ProductType     string       `json:"product_type"`
	Model           string       `json:"model"`
	Color           string       `json:"color"`
	SpecialMonument string       `json:"special_monument"`
	Length          quote.Number `json:"length"`
	Breadth         quote.Number `json:"breadth"`
	Size            quote.Number `json:"size"`
	Quantity        quote.Number `json:"quantity"`
	UnitPrice       quote.Number `json:"unit_price"`
}

// ParseQuoteData decodes the quote_data payload of an unsaved preview. It
// stops at the first missing field. The customer name may be omitted when a
// customer_id is given; the caller then resolves the customer.
func ParseQuoteData(raw []byte) (QuoteInput, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return QuoteInput{}, missing("quote_data")
	}
	var data quoteData
	if err := json.Unmarshal(raw, &data); err != nil {
		return QuoteInput{}, fmt.Errorf("%w: quote_data: %v", ErrInvalidField, err)
	}

	in := QuoteInput{
		Number: strings.TrimSpace(data.QuoteNumber),
		Customer: Customer{
			Name:       data.CustomerName,
			Company:    data.CustomerCompany,
			Email:      data.CustomerEmail,
			Phone:      data.CustomerPhone,
			Address:    data.CustomerAddress,
			City:       data.City,
			State:      data.State,
			PostalCode: data.PostalCode,
		},
	}

	if data.CustomerID.Set {
		if data.CustomerID.Invalid || data.CustomerID.Value <= 0 || data.CustomerID.Value != math.Trunc(data.CustomerID.Value) {
			return QuoteInput{}, badField("customer_id")
		}
		in.CustomerID = int64(data.CustomerID.Value)
	} else if strings.TrimSpace(data.CustomerName) == "" {
		return QuoteInput{}, missing("customer_name")
	}

	if !data.CommissionRate.Set {
		return QuoteInput{}, missing("commission_rate")
	}
	if data.CommissionRate.Invalid || pricing.ValidateRate(data.CommissionRate.Value) != nil {
		return QuoteInput{}, badField("commission_rate")
	}
	in.CommissionRate = data.CommissionRate.Value

	if len(data.Items) == 0 {
		return QuoteInput{}, missing("items")
	}
	for i, row := range data.Items {
		it, err := row.lineInput(i)
		if err != nil {
			return QuoteInput{}, err
		}
		in.Items = append(in.Items, it)
	}
	return in, nil
}

func (r quoteDataRow) lineInput(i int) (LineInput, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

	if strings.TrimSpace(r.ProductType) == "" {
		return LineInput{}, missing(field("product_type"))
	}
	pt, err := pricing.ParseProductType(r.ProductType)
	if err != nil {
		return LineInput{}, badField(field("product_type"))
	}

	values := []struct {
		name     string
		n        quote.Number
		required bool
	}{
		{"length", r.Length, true},
		{"breadth", r.Breadth, true},
		{"quantity", r.Quantity, true},
		{"unit_price", r.UnitPrice, true},
		{"size", r.Size, false},
	}
	for _, v := range values {
		if !v.n.Set {
			if v.required {
				return LineInput{}, missing(field(v.name))
			}
			continue
		}
		if v.n.Invalid || v.n.Value < 0 {
			return LineInput{}, badField(field(v.name))
		}
	}
	if r.Quantity.Value < 1 || r.Quantity.Value > pricing.MaxQuantity || r.Quantity.Value != math.Trunc(r.Quantity.Value) {
		return LineInput{}, badField(field("quantity"))
	}
	if r.Length.Value == 0 {
		return LineInput{}, badField(field("length"))
	}
	if r.Breadth.Value == 0 {
		return LineInput{}, badField(field("breadth"))
	}

	return LineInput{
		ProductType:     pt,
		Model:           strings.TrimSpace(r.Model),
		Color:           strings.TrimSpace(r.Color),
		SpecialMonument: strings.TrimSpace(r.SpecialMonument),
		Length:          r.Length.Value,
		Breadth:         r.Breadth.Value,
		Size:            r.Size.Value,
		Quantity:        int(r.Quantity.Value),
		UnitPrice:       r.UnitPrice.Value,
	}, nil
}
