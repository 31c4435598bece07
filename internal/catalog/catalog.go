// Package catalog reads and reprices the product reference tables.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/stonequote/internal/pricing"
)

var (
	ErrNotFound       = errors.New("catalog entry not found")
	ErrUnknownType    = errors.New("product type has no catalog table")
	ErrInvalidPricing = errors.New("invalid catalog pricing")
)

// productTables is the whitelist of catalog tables; table names are never
// taken from user input.
var productTables = map[pricing.ProductType]string{
	pricing.TypeSertop: "sertop_products",
	pricing.TypeBase:   "base_products",
	pricing.TypeMarker: "marker_products",
	pricing.TypeSlant:  "slant_products",
}

// Product is one row of a catalog product table. BasePrice is per square foot.
type Product struct {
	ID               int64
	Type             pricing.ProductType
	Model            string
	Size             float64
	LengthInches     float64
	BreadthInches    float64
	SupplierPrice    float64
	MarkupPercentage float64
	BasePrice        float64
}

type StoneColor struct {
	ID                      int64
	Name                    string
	PriceIncreasePercentage float64
}

type SpecialMonument struct {
	ID         int64
	Name       string
	Percentage float64
}

// Store is the catalog gateway over SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func tableFor(t pricing.ProductType) (string, error) {
	table, ok := productTables[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return table, nil
}

// Product loads one catalog product.
func (s *Store) Product(ctx context.Context, t pricing.ProductType, id int64) (Product, error) {
	table, err := tableFor(t)
	if err != nil {
		return Product{}, err
	}

	p := Product{Type: t}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, model, size, length_inches, breadth_inches, supplier_price, markup_percentage, base_price
		FROM `+table+`
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Model, &p.Size, &p.LengthInches, &p.BreadthInches, &p.SupplierPrice, &p.MarkupPercentage, &p.BasePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: %s #%d", ErrNotFound, t, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("load %s product %d: %w", t, id, err)
	}
	return p, nil
}

// Products lists one catalog category ordered by model.
func (s *Store) Products(ctx context.Context, t pricing.ProductType) ([]Product, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, size, length_inches, breadth_inches, supplier_price, markup_percentage, base_price
		FROM `+table+`
		ORDER BY model, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list %s products: %w", t, err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p := Product{Type: t}
		if err := rows.Scan(&p.ID, &p.Model, &p.Size, &p.LengthInches, &p.BreadthInches, &p.SupplierPrice, &p.MarkupPercentage, &p.BasePrice); err != nil {
			return nil, fmt.Errorf("scan %s product: %w", t, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s products: %w", t, err)
	}
	return products, nil
}

func (s *Store) Color(ctx context.Context, id int64) (StoneColor, error) {
	var c StoneColor
	err := s.db.QueryRowContext(ctx, `
		SELECT id, color_name, price_increase_percentage
		FROM stone_color_rates
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.PriceIncreasePercentage)
	if errors.Is(err, sql.ErrNoRows) {
		return StoneColor{}, fmt.Errorf("%w: color #%d", ErrNotFound, id)
	}
	if err != nil {
		return StoneColor{}, fmt.Errorf("load color %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) Colors(ctx context.Context) ([]StoneColor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, color_name, price_increase_percentage
		FROM stone_color_rates
		ORDER BY color_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	defer rows.Close()

	colors := []StoneColor{}
	for rows.Next() {
		var c StoneColor
		if err := rows.Scan(&c.ID, &c.Name, &c.PriceIncreasePercentage); err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

func (s *Store) SpecialMonument(ctx context.Context, id int64) (SpecialMonument, error) {
	var m SpecialMonument
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sp_name, sp_value
		FROM special_monuments
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Percentage)
	if errors.Is(err, sql.ErrNoRows) {
		return SpecialMonument{}, fmt.Errorf("%w: special monument #%d", ErrNotFound, id)
	}
	if err != nil {
		return SpecialMonument{}, fmt.Errorf("load special monument %d: %w", id, err)
	}
	return m, nil
}

func (s *Store) SpecialMonuments(ctx context.Context) ([]SpecialMonument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sp_name, sp_value
		FROM special_monuments
		ORDER BY sp_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list special monuments: %w", err)
	}
	defer rows.Close()

	monuments := []SpecialMonument{}
	for rows.Next() {
		var m SpecialMonument
		if err := rows.Scan(&m.ID, &m.Name, &m.Percentage); err != nil {
			return nil, fmt.Errorf("scan special monument: %w", err)
		}
		monuments = append(monuments, m)
	}
	return monuments, rows.Err()
}
