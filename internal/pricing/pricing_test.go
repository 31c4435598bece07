package pricing

import (
	"errors"
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCalculate_SurchargeOrderBaseColorMonument(t *testing.T) {
	result, err := Calculate(ItemInput{
		Type:            TypeBase,
		BasePrice:       33.33,
		Length:          24,
		Breadth:         12,
		Size:            6,
		Quantity:        3,
		ColorPercent:    7.5,
		MonumentPercent: 7.5,
	})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "unitPrice", result.UnitPrice, 38.52)
	nearlyEqual(t, "totalPrice", result.TotalPrice, 115.56)
	nearlyEqual(t, "squareFeet", result.SquareFeet, 2)
	nearlyEqual(t, "cubicFeet", result.CubicFeet, 3)
}

func TestCalculate_NoSurcharges(t *testing.T) {
	result, err := Calculate(ItemInput{Type: TypeSlant, BasePrice: 250, Length: 20, Breadth: 10, Size: 16, Quantity: 1})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "unitPrice", result.UnitPrice, 250)
	nearlyEqual(t, "totalPrice", result.TotalPrice, 250)
}

func TestCalculate_RejectsInvalidInput(t *testing.T) {
	valid := ItemInput{Type: TypeBase, BasePrice: 100, Length: 24, Breadth: 12, Size: 6, Quantity: 1}

	cases := []struct {
		name   string
		mutate func(*ItemInput)
		want   error
	}{
		{"zero length", func(in *ItemInput) { in.Length = 0 }, ErrInvalidDimension},
		{"negative breadth", func(in *ItemInput) { in.Breadth = -2 }, ErrInvalidDimension},
		{"NaN length", func(in *ItemInput) { in.Length = math.NaN() }, ErrInvalidDimension},
		{"zero quantity", func(in *ItemInput) { in.Quantity = 0 }, ErrInvalidQuantity},
		{"zero price", func(in *ItemInput) { in.BasePrice = 0 }, ErrInvalidPrice},
		{"negative color", func(in *ItemInput) { in.ColorPercent = -1 }, ErrInvalidSurcharge},
		{"huge length", func(in *ItemInput) { in.Length, in.Breadth = 1e200, 1e200 }, ErrInvalidDimension},
		{"infinite breadth", func(in *ItemInput) { in.Breadth = math.Inf(1) }, ErrInvalidDimension},
		{"huge size", func(in *ItemInput) { in.Size = 1e300 }, ErrInvalidDimension},
		{"huge quantity", func(in *ItemInput) { in.Quantity = MaxQuantity + 1 }, ErrInvalidQuantity},
		{"huge price", func(in *ItemInput) { in.BasePrice = 1e308 }, ErrInvalidPrice},
		{"line total overflow", func(in *ItemInput) { in.BasePrice, in.Quantity = MaxAmount, 2 }, ErrInvalidPrice},
		{"infinite surcharge", func(in *ItemInput) { in.MonumentPercent = math.Inf(1) }, ErrInvalidPrice},
	}

	for _, tc := range cases {
		in := valid
		tc.mutate(&in)
		if _, err := Calculate(in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestEffectiveHeight_MarkerIsFixed(t *testing.T) {
	nearlyEqual(t, "marker size 8", EffectiveHeight(TypeMarker, 8), MarkerHeight)
	nearlyEqual(t, "marker size 0", EffectiveHeight(TypeMarker, 0), MarkerHeight)
	nearlyEqual(t, "base size 6", EffectiveHeight(TypeBase, 6), 6)
	nearlyEqual(t, "slab no size", EffectiveHeight(TypeSlab, 0), 0)
}

func TestCubicFeet_RoundsAfterQuantity(t *testing.T) {
	// One marker piece is 0.6666.. cu.ft; rounding per piece would give 2.01.
	nearlyEqual(t, "marker x3", CubicFeet(TypeMarker, 24, 12, 10, 3), 2)
	nearlyEqual(t, "marker x1", CubicFeet(TypeMarker, 24, 12, 10, 1), 0.67)
	nearlyEqual(t, "tile without size", CubicFeet(TypeTile, 12, 12, 0, 5), 0)
}

func TestParseProductType(t *testing.T) {
	got, err := ParseProductType("  Marker ")
	if err != nil {
		t.Fatalf("ParseProductType returned error: %v", err)
	}
	if got != TypeMarker {
		t.Fatalf("ParseProductType = %q, want %q", got, TypeMarker)
	}
	if !got.Catalogued() {
		t.Fatalf("marker should be catalogued")
	}
	if TypeTile.Catalogued() {
		t.Fatalf("tile should not be catalogued")
	}
	if _, err := ParseProductType("plinth"); !errors.Is(err, ErrUnknownProductType) {
		t.Fatalf("err = %v, want ErrUnknownProductType", err)
	}
	if TypeRawMaterial.Label() != "Raw material" {
		t.Fatalf("Label = %q", TypeRawMaterial.Label())
	}
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	nearlyEqual(t, "2.675", Round2(2.675), 2.68)
	nearlyEqual(t, "-1.005", Round2(-1.005), -1.01)
	nearlyEqual(t, "1.004", Round2(1.004), 1.00)
}

func TestMoneyHelpers_NonFiniteDoNotPanic(t *testing.T) {
	if v := Round2(math.Inf(1)); !math.IsInf(v, 1) {
		t.Fatalf("Round2(+Inf) = %v", v)
	}
	if v := Sum(1, math.Inf(-1)); ValidAmount(v) {
		t.Fatalf("Sum with -Inf = %v, want an invalid amount", v)
	}
	if v := Percent(math.Inf(1), 5); ValidAmount(v) {
		t.Fatalf("Percent(+Inf) = %v, want an invalid amount", v)
	}
	if v := LineTotal(1e308, 2); ValidAmount(v) {
		t.Fatalf("LineTotal overflow = %v, want an invalid amount", v)
	}
}

func TestNewLine_RejectsOverflow(t *testing.T) {
	if _, err := NewLine(TypeStone, 1e200, 1e200, 1, 1, 10); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("huge dimensions err = %v, want ErrInvalidDimension", err)
	}
	if _, err := NewLine(TypeStone, 24, 12, 1, 2, 1e308); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("huge unit price err = %v, want ErrInvalidPrice", err)
	}
}
