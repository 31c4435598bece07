package pricing

import "errors"

var ErrInvalidRate = errors.New("commission rate must be between 0 and 100")

// Line is a priced quote line before commission.
type Line struct {
	UnitPrice float64
	Quantity  int
	Total     float64
	CubicFeet float64
}

// NewLine builds a Line from dimensions and a unit price already computed by
// Calculate, so every surface derives cubic feet the same way.
func NewLine(t ProductType, length, breadth, size float64, quantity int, unitPrice float64) (Line, error) {
	if err := validateDimensions(length, breadth, size, quantity); err != nil {
		return Line{}, err
	}
	if !ValidAmount(unitPrice) {
		return Line{}, ErrInvalidPrice
	}
	total := LineTotal(unitPrice, quantity)
	if !ValidAmount(total) {
		return Line{}, ErrInvalidPrice
	}
	return Line{
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Total:     total,
		CubicFeet: CubicFeet(t, length, breadth, size, quantity),
	}, nil
}

// DistributedLine is a Line carrying its proportional share of commission.
type DistributedLine struct {
	Line
	Commission              float64
	UnitPriceWithCommission float64
	TotalWithCommission     float64
}

// Totals summarizes a quote's money.
type Totals struct {
	Subtotal         float64
	CommissionRate   float64
	CommissionAmount float64
	Total            float64
}

// ValidateRate checks that a commission rate is a percentage in [0, 100].
func ValidateRate(rate float64) error {
	if !(rate >= 0 && rate <= 100) {
		return ErrInvalidRate
	}
	return nil
}

// CommissionAmount returns subtotal * rate / 100 rounded to cents.
func CommissionAmount(subtotal, rate float64) float64 {
	return Percent(subtotal, rate)
}

// Subtotal sums the pre-commission line totals.
func Subtotal(lines []Line) float64 {
	values := make([]float64, len(lines))
	for i, l := range lines {
		values[i] = l.Total
	}
	return Sum(values...)
}

// ComputeTotals derives the commission and grand total for a set of lines.
func ComputeTotals(lines []Line, rate float64) Totals {
	subtotal := Subtotal(lines)
	commission := CommissionAmount(subtotal, rate)
	return Totals{
		Subtotal:         subtotal,
		CommissionRate:   rate,
		CommissionAmount: commission,
		Total:            Sum(subtotal, commission),
	}
}

// Distribute spreads commission across lines in proportion to each line's
// total. A zero subtotal yields zero commission on every line.
func Distribute(lines []Line, commission float64) []DistributedLine {
	subtotal := Subtotal(lines)
	out := make([]DistributedLine, len(lines))
	for i, l := range lines {
		share := 0.0
		if subtotal != 0 {
			share = commission * (l.Total / subtotal)
		}
		unit := l.UnitPrice
		if l.Quantity > 0 {
			unit += share / float64(l.Quantity)
		}
		out[i] = DistributedLine{
			Line:                    l,
			Commission:              share,
			UnitPriceWithCommission: unit,
			TotalWithCommission:     l.Total + share,
		}
	}
	return out
}

// Summary is the full breakdown shared by previews and documents.
type Summary struct {
	Lines          []DistributedLine
	Totals         Totals
	TotalCubicFeet float64
	Capacity       CapacityAdvice
}

// Summarize prices the commission, distributes it and evaluates container
// capacity in one pass.
func Summarize(lines []Line, rate float64) Summary {
	totals := ComputeTotals(lines, rate)
	cubic := make([]float64, len(lines))
	for i, l := range lines {
		cubic[i] = l.CubicFeet
	}
	totalCubic := Sum(cubic...)
	return Summary{
		Lines:          Distribute(lines, totals.CommissionAmount),
		Totals:         totals,
		TotalCubicFeet: totalCubic,
		Capacity:       AdviseCapacity(totalCubic),
	}
}
