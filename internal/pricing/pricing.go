package pricing

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MarkerHeight is the fixed thickness, in inches, used for every marker.
	MarkerHeight = 4.00

	// MaxDimension bounds length, breadth and size, in inches.
	MaxDimension = 10000.0
	// MaxQuantity bounds the pieces on one line.
	MaxQuantity = 100000
	// MaxAmount bounds any single money value.
	MaxAmount = 1e12

	squareInchesPerFoot = 144.0
	cubicInchesPerFoot  = 1728.0
)

var (
	ErrInvalidDimension   = errors.New("length and breadth must be positive numbers")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidPrice       = errors.New("base price must be a positive number")
	ErrInvalidSurcharge   = errors.New("surcharge percentage cannot be negative")
	ErrUnknownProductType = errors.New("unknown product type")
)

// ProductType identifies a product family.
type ProductType string

const (
	TypeSertop      ProductType = "sertop"
	TypeBase        ProductType = "base"
	TypeMarker      ProductType = "marker"
	TypeSlant       ProductType = "slant"
	TypeStone       ProductType = "stone"
	TypeTile        ProductType = "tile"
	TypeSlab        ProductType = "slab"
	TypeRawMaterial ProductType = "raw_material"
)

var productTypes = []ProductType{
	TypeSertop, TypeBase, TypeMarker, TypeSlant,
	TypeStone, TypeTile, TypeSlab, TypeRawMaterial,
}

// CatalogTypes lists the product types backed by a catalog price table.
var CatalogTypes = []ProductType{TypeSertop, TypeBase, TypeMarker, TypeSlant}

// ParseProductType normalizes raw input into a known ProductType.
func ParseProductType(raw string) (ProductType, error) {
	t := ProductType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range productTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProductType, raw)
}

// Catalogued reports whether prices for t come from a catalog table.
func (t ProductType) Catalogued() bool {
	for _, c := range CatalogTypes {
		if t == c {
			return true
		}
	}
	return false
}

// Label returns the capitalized form used on printed documents.
func (t ProductType) Label() string {
	s := strings.ReplaceAll(string(t), "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ItemInput represents the inputs needed to price one quote line.
type ItemInput struct {
	Type            ProductType
	BasePrice       float64
	Length          float64
	Breadth         float64
	Size            float64
	Quantity        int
	ColorPercent    float64
	MonumentPercent float64
}

// Result contains the priced values for one line.
type Result struct {
	UnitPrice  float64
	TotalPrice float64
	SquareFeet float64
	CubicFeet  float64
}

// Calculate prices a line. Surcharges are applied base, then color, then
// special monument, rounding to cents after each step.
func Calculate(in ItemInput) (Result, error) {
	if err := validateDimensions(in.Length, in.Breadth, in.Size, in.Quantity); err != nil {
		return Result{}, err
	}
	if !(in.BasePrice > 0) || !ValidAmount(in.BasePrice) {
		return Result{}, ErrInvalidPrice
	}
	if !(in.ColorPercent >= 0) || !(in.MonumentPercent >= 0) {
		return Result{}, ErrInvalidSurcharge
	}

	unit := Round2(in.BasePrice)
	unit = Round2(unit * (1 + in.ColorPercent/100))
	unit = Round2(unit * (1 + in.MonumentPercent/100))
	total := LineTotal(unit, in.Quantity)
	if !ValidAmount(total) {
		return Result{}, ErrInvalidPrice
	}

	return Result{
		UnitPrice:  unit,
		TotalPrice: total,
		SquareFeet: SquareFeet(in.Length, in.Breadth),
		CubicFeet:  CubicFeet(in.Type, in.Length, in.Breadth, in.Size, in.Quantity),
	}, nil
}

// EffectiveHeight returns the thickness used for volume: markers are always
// MarkerHeight, every other type uses its stored size.
func EffectiveHeight(t ProductType, size float64) float64 {
	if t == TypeMarker {
		return MarkerHeight
	}
	if size < 0 {
		return 0
	}
	return size
}

// SquareFeet converts a face measured in inches to square feet.
func SquareFeet(length, breadth float64) float64 {
	return (length * breadth) / squareInchesPerFoot
}

// CubicFeet returns the volume of quantity pieces, rounded to 2 decimals
// after the quantity multiplication.
func CubicFeet(t ProductType, length, breadth, size float64, quantity int) float64 {
	perPiece := (length * breadth * EffectiveHeight(t, size)) / cubicInchesPerFoot
	return Round2(perPiece * float64(quantity))
}

// PiecePrice turns a per-square-foot catalog price into the price of one piece.
func PiecePrice(perSquareFoot, squareFeet float64) float64 {
	return Round2(perSquareFoot * squareFeet)
}

// LineTotal is unit price times quantity, rounded to cents.
func LineTotal(unitPrice float64, quantity int) float64 {
	return Round2(unitPrice * float64(quantity))
}

// ValidAmount reports whether v is a finite money value within MaxAmount.
func ValidAmount(v float64) bool {
	return v >= 0 && v <= MaxAmount
}

func validateDimensions(length, breadth, size float64, quantity int) error {
	if !(length > 0 && length <= MaxDimension) || !(breadth > 0 && breadth <= MaxDimension) {
		return ErrInvalidDimension
	}
	if !(size <= MaxDimension) {
		return ErrInvalidDimension
	}
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}
