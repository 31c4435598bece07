package document

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func baseInput() QuoteInput {
	return QuoteInput{
		Number:         "Q202603140001",
		Date:           time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Customer:       Customer{Name: "Demo Memorials", City: "Elberton", State: "GA", PostalCode: "30635"},
		CommissionRate: 10,
		Items: []LineInput{{
			ProductType: pricing.TypeBase,
			Model:       "BASE-2412",
			Length:      24,
			Breadth:     12,
			Size:        6,
			Quantity:    2,
			UnitPrice:   100,
		}},
	}
}

func TestBuildQuote_BaseItemExample(t *testing.T) {
	doc, err := BuildQuote(baseInput())
	if err != nil {
		t.Fatalf("BuildQuote returned error: %v", err)
	}

	nearlyEqual(t, "subtotal", doc.Totals.Subtotal, 200)
	nearlyEqual(t, "commission", doc.Totals.CommissionAmount, 20)
	nearlyEqual(t, "grand total", doc.GrandTotal(), 220)
	nearlyEqual(t, "total cu.ft", doc.TotalCubicFeet, 2)
	if len(doc.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(doc.Rows))
	}
	row := doc.Rows[0]
	nearlyEqual(t, "row unit", row.UnitPrice, 110)
	nearlyEqual(t, "row total", row.Total, 220)
	if row.Description != "Base - BASE-2412" {
		t.Fatalf("description = %q", row.Description)
	}
	if row.Dimensions != `24" x 12" x 6"` {
		t.Fatalf("dimensions = %q", row.Dimensions)
	}
	if doc.Capacity.Status != pricing.CapacityWarning {
		t.Fatalf("capacity status = %q, want warning", doc.Capacity.Status)
	}
	if len(doc.Terms) != 5 {
		t.Fatalf("terms = %d, want 5", len(doc.Terms))
	}
}

func TestBuildQuote_RejectsBadInput(t *testing.T) {
	in := baseInput()
	in.CommissionRate = 120
	if _, err := BuildQuote(in); !errors.Is(err, pricing.ErrInvalidRate) {
		t.Fatalf("rate 120: expected ErrInvalidRate, got %v", err)
	}

	in = baseInput()
	in.Items[0].Quantity = 0
	if _, err := BuildQuote(in); !errors.Is(err, pricing.ErrInvalidQuantity) {
		t.Fatalf("quantity 0: expected ErrInvalidQuantity, got %v", err)
	}

	in = baseInput()
	in.Items[0].UnitPrice = -1
	if _, err := BuildQuote(in); !errors.Is(err, pricing.ErrInvalidPrice) {
		t.Fatalf("negative price: expected ErrInvalidPrice, got %v", err)
	}

	in = baseInput()
	in.Items[0].Length, in.Items[0].Breadth = 1e200, 1e200
	if _, err := BuildQuote(in); !errors.Is(err, pricing.ErrInvalidDimension) {
		t.Fatalf("huge dimensions: expected ErrInvalidDimension, got %v", err)
	}

	in = baseInput()
	in.Items[0].UnitPrice = 1e308
	if _, err := BuildQuote(in); !errors.Is(err, pricing.ErrInvalidPrice) {
		t.Fatalf("huge price: expected ErrInvalidPrice, got %v", err)
	}
}

func TestDescriptionAndDimensions(t *testing.T) {
	got := Description(LineInput{ProductType: pricing.TypeRawMaterial, Color: "Jet Black", SpecialMonument: "null"})
	if got != "Raw material - Jet Black" {
		t.Fatalf("description = %q", got)
	}
	if got := Dimensions(pricing.TypeMarker, 24, 12, 8); got != `24" x 12" x 4"` {
		t.Fatalf("marker dimensions = %q", got)
	}
	if got := Dimensions(pricing.TypeSlab, 20.5, 10, 3); got != `20.5" x 10" x 3"` {
		t.Fatalf("slab dimensions = %q", got)
	}
}

func TestCustomerLines_SkipsEmptyAndNull(t *testing.T) {
	c := Customer{Name: "Jane Doe", Company: "null", City: "Elberton", State: "GA", PostalCode: "30635", Email: "jane@example.com"}
	got := c.Lines()
	want := []string{"Jane Doe", "Elberton, GA 30635", "Email: jane@example.com"}
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQuoteFilename(t *testing.T) {
	cases := map[string]string{
		"Q202603140001": "Quote_Q202603140001.pdf",
		"Q 12/../x":     "Quote_Q_12x.pdf",
		"":              "Quote.pdf",
		"  ":            "Quote.pdf",
	}
	for in, want := range cases {
		if got := QuoteFilename(in); got != want {
			t.Fatalf("QuoteFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMoney(t *testing.T) {
	cases := map[float64]string{
		0:         "$0.00",
		220:       "$220.00",
		1234.565:  "$1,234.57",
		1000000.1: "$1,000,000.10",
		-45.5:     "-$45.50",
	}
	for in, want := range cases {
		if got := money(in); got != want {
			t.Fatalf("money(%v) = %q, want %q", in, got, want)
		}
	}
}

// A saved quote and the equivalent unsaved payload must print the same numbers.
func TestBuildQuote_SavedAndUnsavedAgree(t *testing.T) {
	saved := quote.Quote{
		Number:         "Q202603140002",
		CustomerID:     7,
		Customer:       quote.Customer{ID: 7, Name: "Demo Memorials"},
		CommissionRate: 7.5,
		CreatedAt:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Items: []quote.Item{
			{ProductType: pricing.TypeMarker, ModelName: "MKR-2412", ColorName: "Indian Red", Length: 24, Breadth: 12, Size: 4, Quantity: 3, UnitPrice: 88},
			{ProductType: pricing.TypeSlab, Length: 48, Breadth: 30, Size: 3, Quantity: 1, UnitPrice: 412.35},
		},
	}
	raw := []byte(`{
		"quote_number": "Q202603140002",
		"customer_id": 7,
		"commission_rate": "7.5",
		"items": [
			{"product_type": "marker", "model": "MKR-2412", "color": "Indian Red", "length": 24, "breadth": 12, "size": 4, "quantity": 3, "unit_price": 88},
			{"product_type": "slab", "length": "48", "breadth": 30, "size": 3, "quantity": 1, "unit_price": 412.35}
		]
	}`)

	fromStore, err := BuildQuote(FromQuote(saved))
	if err != nil {
		t.Fatalf("saved mode returned error: %v", err)
	}
	in, err := ParseQuoteData(raw)
	if err != nil {
		t.Fatalf("ParseQuoteData returned error: %v", err)
	}
	if in.CustomerID != 7 {
		t.Fatalf("customer id = %d, want 7", in.CustomerID)
	}
	fromPayload, err := BuildQuote(in)
	if err != nil {
		t.Fatalf("unsaved mode returned error: %v", err)
	}

	nearlyEqual(t, "subtotal", fromPayload.Totals.Subtotal, fromStore.Totals.Subtotal)
	nearlyEqual(t, "commission", fromPayload.Totals.CommissionAmount, fromStore.Totals.CommissionAmount)
	nearlyEqual(t, "total", fromPayload.GrandTotal(), fromStore.GrandTotal())
	nearlyEqual(t, "total cu.ft", fromPayload.TotalCubicFeet, fromStore.TotalCubicFeet)
	for i := range fromStore.Rows {
		a, b := fromStore.Rows[i], fromPayload.Rows[i]
		if a.Description != b.Description || a.Dimensions != b.Dimensions {
			t.Fatalf("row %d text differs: %+v vs %+v", i, a, b)
		}
		nearlyEqual(t, "row unit", b.UnitPrice, a.UnitPrice)
		nearlyEqual(t, "row total", b.Total, a.Total)
		nearlyEqual(t, "row cu.ft", b.CubicFeet, a.CubicFeet)
	}
	// 264 + 412.35 = 676.35; 7.5% = 50.73 (50.72625 rounded)
	nearlyEqual(t, "expected subtotal", fromStore.Totals.Subtotal, 676.35)
	nearlyEqual(t, "expected commission", fromStore.Totals.CommissionAmount, 50.73)
	nearlyEqual(t, "expected total", fromStore.GrandTotal(), 727.08)
}
