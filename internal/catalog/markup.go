package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/stonequote/internal/pricing"
)

// UpdateProductPricing stores a new supplier price and markup for one product
// and recomputes its base price.
func (s *Store) UpdateProductPricing(ctx context.Context, t pricing.ProductType, id int64, supplierPrice, markup float64) (Product, error) {
	table, err := tableFor(t)
	if err != nil {
		return Product{}, err
	}
	if err := pricing.ValidateMarkup(supplierPrice, markup); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET
			supplier_price = ?,
			markup_percentage = ?,
			base_price = ?
		WHERE id = ?
	`, supplierPrice, markup, pricing.BasePrice(supplierPrice, markup), id)
	if err != nil {
		return Product{}, fmt.Errorf("update %s product %d pricing: %w", t, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, fmt.Errorf("update %s product %d pricing: %w", t, id, err)
	}
	if affected == 0 {
		return Product{}, fmt.Errorf("%w: %s #%d", ErrNotFound, t, id)
	}

	return s.Product(ctx, t, id)
}

// ApplyGlobalMarkup sets one markup on every product of the given categories
// (all four when none are given) and recomputes each base price. Either every
// row is updated or none is.
func (s *Store) ApplyGlobalMarkup(ctx context.Context, markup float64, types ...pricing.ProductType) (int, error) {
	if err := pricing.ValidateMarkup(0, markup); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}
	if len(types) == 0 {
		types = pricing.CatalogTypes
	}

	tables := make([]string, 0, len(types))
	for _, t := range types {
		table, err := tableFor(t)
		if err != nil {
			return 0, err
		}
		tables = append(tables, table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin markup transaction: %w", err)
	}

	updated := 0
	for _, table := range tables {
		n, err := applyMarkup(ctx, tx, table, markup)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		updated += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit markup transaction: %w", err)
	}
	return updated, nil
}

type priceRow struct {
	id            int64
	supplierPrice float64
}

func applyMarkup(ctx context.Context, tx *sql.Tx, table string, markup float64) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, supplier_price FROM `+table)
	if err != nil {
		return 0, fmt.Errorf("read %s prices: %w", table, err)
	}
	var pending []priceRow
	for rows.Next() {
		var r priceRow
		if err := rows.Scan(&r.id, &r.supplierPrice); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan %s price: %w", table, err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("read %s prices: %w", table, err)
	}
	rows.Close()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE `+table+`
		SET markup_percentage = ?, base_price = ?
		WHERE id = ?
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare %s markup update: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range pending {
		if _, err := stmt.ExecContext(ctx, markup, pricing.BasePrice(r.supplierPrice, markup), r.id); err != nil {
			return 0, fmt.Errorf("update %s row %d: %w", table, r.id, err)
		}
	}
	return len(pending), nil
}
