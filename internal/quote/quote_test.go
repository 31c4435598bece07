package quote

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Simplici0/stonequote/internal/pricing"
)

func TestStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusAccepted, false},
		{StatusSent, StatusAccepted, true},
		{StatusSent, StatusRejected, true},
		{StatusSent, StatusConverted, true},
		{StatusSent, StatusDraft, false},
		{StatusAccepted, StatusConverted, true},
		{StatusAccepted, StatusCancelled, false},
		{StatusRejected, StatusSent, false},
		{StatusConverted, StatusDraft, false},
		{StatusCancelled, StatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}

	for _, s := range []Status{StatusRejected, StatusConverted, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if !StatusDraft.Editable() || StatusSent.Editable() {
		t.Fatalf("only draft quotes are editable")
	}
	if StatusDraft.Convertible() || !StatusAccepted.Convertible() {
		t.Fatalf("unexpected convertible states")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus(" Sent "); err != nil || s != StatusSent {
		t.Fatalf("ParseStatus = %q, %v", s, err)
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Fatalf("ParseStatus accepted unknown status")
	}
}

func TestNumber_AcceptsNumbersAndNumericStrings(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "24", "c": null, "d": "abc", "e": ""}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.Set || payload.A.Value != 12.5 {
		t.Fatalf("a = %+v", payload.A)
	}
	if !payload.B.Set || payload.B.Value != 24 {
		t.Fatalf("b = %+v", payload.B)
	}
	if payload.C.Set {
		t.Fatalf("null should be unset: %+v", payload.C)
	}
	if !payload.D.Invalid {
		t.Fatalf("abc should be invalid: %+v", payload.D)
	}
	if payload.E.Set {
		t.Fatalf("empty string should be unset: %+v", payload.E)
	}
}

func TestDecodeItems_Validation(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
		want  error
	}{
		{"missing length", `[{"productType":"base","modelId":1,"width":12,"quantity":1}]`, "items[0].length", pricing.ErrInvalidDimension},
		{"text width", `[{"productType":"base","modelId":1,"length":24,"width":"wide","quantity":1}]`, "items[0].width", pricing.ErrInvalidDimension},
		{"zero quantity", `[{"productType":"base","modelId":1,"length":24,"width":12,"quantity":0}]`, "items[0].quantity", pricing.ErrInvalidQuantity},
		{"fractional quantity", `[{"productType":"base","modelId":1,"length":24,"width":12,"quantity":1.5}]`, "items[0].quantity", pricing.ErrInvalidQuantity},
		{"unknown type", `[{"productType":"plinth","length":24,"width":12,"quantity":1}]`, "items[0].productType", pricing.ErrUnknownProductType},
		{"catalog type without model", `[{"productType":"marker","length":24,"width":12,"quantity":1}]`, "items[0].modelId", errRequired},
	}

	for _, tc := range cases {
		_, err := DecodeItems([]byte(tc.raw))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: err = %v, want ValidationError", tc.name, err)
		}
		if vErr.Field != tc.field {
			t.Fatalf("%s: field = %q, want %q", tc.name, vErr.Field, tc.field)
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestDecodeItems_AcceptsFormShapedPayload(t *testing.T) {
	raw := `[{"modelId":"3","modelName":"","productType":"Base","size":"6","colorId":"","specialMonumentId":null,
		"length":"24","width":"12","sqft":"2.00","cuft":"1.00","quantity":"2","basePrice":"100","totalPrice":"200"}]`

	items, err := DecodeItems([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeItems: %v", err)
	}
	got := items[0]
	if got.ProductType != pricing.TypeBase || got.ModelID != 3 || got.Quantity != 2 || got.ColorID != 0 {
		t.Fatalf("unexpected item: %+v", got)
	}
	if got.Length != 24 || got.Breadth != 12 {
		t.Fatalf("unexpected dimensions: %+v", got)
	}

	if _, err := DecodeItems([]byte(`[]`)); err == nil {
		t.Fatalf("empty items accepted")
	}
	if _, err := DecodeItems([]byte(`{"not":"a list"}`)); err == nil {
		t.Fatalf("non-array items accepted")
	}
}

func TestCreatePayload_Request(t *testing.T) {
	var p CreatePayload
	raw := `{"customer_id": 1, "commission_rate": "150", "items": [{"productType":"tile","length":12,"width":12,"quantity":1,"basePrice":5}]}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := p.Request(); !errors.Is(err, pricing.ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}

	p.CommissionRate = Number{Value: 10, Set: true}
	p.CustomerID = Number{}
	var vErr *ValidationError
	if _, err := p.Request(); !errors.As(err, &vErr) || vErr.Field != "customer_id" {
		t.Fatalf("missing customer err = %v", err)
	}
}
