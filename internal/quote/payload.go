package quote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/stonequote/internal/pricing"
)

var (
	errNotNumber   = errors.New("must be a number")
	errNotInteger  = errors.New("must be a whole number")
	errRequired    = errors.New("is required")
	errNoItems     = errors.New("at least one item is required")
	errNegativeNum = errors.New("cannot be negative")
)

// Number accepts a JSON number, a numeric string or null. Browsers post form
// data as strings, so both shapes arrive at the same field.
type Number struct {
	Value   float64
	Set     bool
	Invalid bool
}

// NumberFromString parses a form value.
func NumberFromString(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{Set: true, Invalid: true}
	}
	return Number{Value: v, Set: true}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumberFromString(s)
		return nil
	}
	if len(b) > 0 && (b[0] == '{' || b[0] == '[' || b[0] == 't' || b[0] == 'f') {
		*n = Number{Set: true, Invalid: true}
		return nil
	}
	*n = NumberFromString(string(b))
	return nil
}

func (n Number) positive(field string, errInvalid error) (float64, error) {
	if !n.Set || n.Invalid || !(n.Value > 0) {
		return 0, invalid(field, errInvalid)
	}
	return n.Value, nil
}

func (n Number) optionalID(field string) (int64, error) {
	if !n.Set {
		return 0, nil
	}
	if n.Invalid {
		return 0, invalid(field, errNotNumber)
	}
	if n.Value != math.Trunc(n.Value) {
		return 0, invalid(field, errNotInteger)
	}
	if n.Value < 0 {
		return 0, invalid(field, errNegativeNum)
	}
	return int64(n.Value), nil
}

func (n Number) optionalFloat(field string) (float64, error) {
	if !n.Set {
		return 0, nil
	}
	if n.Invalid {
		return 0, invalid(field, errNotNumber)
	}
	if n.Value < 0 {
		return 0, invalid(field, errNegativeNum)
	}
	return n.Value, nil
}

// ItemPayload is one cart line as posted by the quote form. Sqft, cuft and
// totalPrice are client-side estimates; the server re-prices every item.
type ItemPayload struct {
	ProductType         string `json:"productType"`
	ModelID             Number `json:"modelId"`
	ModelName           string `json:"modelName"`
	Size                Number `json:"size"`
	ColorID             Number `json:"colorId"`
	ColorName           string `json:"colorName"`
	SpecialMonumentID   Number `json:"specialMonumentId"`
	SpecialMonumentName string `json:"specialMonumentName"`
	Length              Number `json:"length"`
	Width               Number `json:"width"`
	Sqft                Number `json:"sqft"`
	Cuft                Number `json:"cuft"`
	Quantity            Number `json:"quantity"`
	BasePrice           Number `json:"basePrice"`
	TotalPrice          Number `json:"totalPrice"`
}

// ItemRequest is a validated line awaiting catalog pricing.
type ItemRequest struct {
	ProductType       pricing.ProductType
	ModelID           int64
	ModelName         string
	Size              float64
	ColorID           int64
	SpecialMonumentID int64
	Length            float64
	Breadth           float64
	Quantity          int
	BasePrice         float64
}

// Request validates the payload. index names the item in error messages.
func (p ItemPayload) Request(index int) (ItemRequest, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", index, name) }

	pt, err := pricing.ParseProductType(p.ProductType)
	if err != nil {
		return ItemRequest{}, invalid(field("productType"), err)
	}
	req := ItemRequest{ProductType: pt, ModelName: strings.TrimSpace(p.ModelName)}

	if req.Length, err = p.Length.positive(field("length"), pricing.ErrInvalidDimension); err != nil {
		return ItemRequest{}, err
	}
	if req.Breadth, err = p.Width.positive(field("width"), pricing.ErrInvalidDimension); err != nil {
		return ItemRequest{}, err
	}
	qty, err := p.Quantity.positive(field("quantity"), pricing.ErrInvalidQuantity)
	if err != nil {
		return ItemRequest{}, err
	}
	if qty != math.Trunc(qty) || qty > math.MaxInt32 {
		return ItemRequest{}, invalid(field("quantity"), pricing.ErrInvalidQuantity)
	}
	req.Quantity = int(qty)

	if req.ModelID, err = p.ModelID.optionalID(field("modelId")); err != nil {
		return ItemRequest{}, err
	}
	if pt.Catalogued() && req.ModelID == 0 {
		return ItemRequest{}, invalid(field("modelId"), errRequired)
	}
	if req.ColorID, err = p.ColorID.optionalID(field("colorId")); err != nil {
		return ItemRequest{}, err
	}
	if req.SpecialMonumentID, err = p.SpecialMonumentID.optionalID(field("specialMonumentId")); err != nil {
		return ItemRequest{}, err
	}
	if req.Size, err = p.Size.optionalFloat(field("size")); err != nil {
		return ItemRequest{}, err
	}
	if req.BasePrice, err = p.BasePrice.optionalFloat(field("basePrice")); err != nil {
		return ItemRequest{}, err
	}
	return req, nil
}

// DecodeItems parses the JSON items array posted with a quote.
func DecodeItems(raw []byte) ([]ItemRequest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, invalid("items", errNoItems)
	}
	var payloads []ItemPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, &ValidationError{Field: "items", Message: "must be a JSON array of items", Err: err}
	}
	return itemRequests(payloads)
}

func itemRequests(payloads []ItemPayload) ([]ItemRequest, error) {
	if len(payloads) == 0 {
		return nil, invalid("items", errNoItems)
	}
	out := make([]ItemRequest, len(payloads))
	for i, p := range payloads {
		req, err := p.Request(i)
		if err != nil {
			return nil, err
		}
		out[i] = req
	}
	return out, nil
}

// CreatePayload is the JSON body of a quote create request.
type CreatePayload struct {
	CustomerID     Number        `json:"customer_id"`
	CommissionRate Number        `json:"commission_rate"`
	Items          []ItemPayload `json:"items"`
}

type CreateRequest struct {
	CustomerID     int64
	CommissionRate float64
	Items          []ItemRequest
}

// Request validates the header fields and every item.
func (p CreatePayload) Request() (CreateRequest, error) {
	id, err := p.CustomerID.optionalID("customer_id")
	if err != nil {
		return CreateRequest{}, err
	}
	if id == 0 {
		return CreateRequest{}, invalid("customer_id", errRequired)
	}
	rate, err := commissionRate(p.CommissionRate)
	if err != nil {
		return CreateRequest{}, err
	}
	items, err := itemRequests(p.Items)
	if err != nil {
		return CreateRequest{}, err
	}
	return CreateRequest{CustomerID: id, CommissionRate: rate, Items: items}, nil
}

func commissionRate(n Number) (float64, error) {
	if !n.Set {
		return 0, nil
	}
	if n.Invalid {
		return 0, invalid("commission_rate", errNotNumber)
	}
	if err := pricing.ValidateRate(n.Value); err != nil {
		return 0, invalid("commission_rate", err)
	}
	return n.Value, nil
}
