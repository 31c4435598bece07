package quote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
)

// ErrDuplicateNumber is returned when a generated quote number already exists.
var ErrDuplicateNumber = errors.New("quote number already exists")

// Store is the quote persistence gateway.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// Create inserts the quote header and all items in one transaction and
// returns the new id. Nothing is stored if any item fails.
func (s *Store) Create(ctx context.Context, q Quote) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin quote transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO quotes (
			quote_number,
			customer_id,
			status,
			commission_rate,
			commission_amount,
			total_amount,
			created_by,
			created_at,
			updated_at,
			valid_until
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.Number, q.CustomerID, q.Status, q.CommissionRate, q.CommissionAmount, q.TotalAmount,
		q.CreatedBy, formatTime(q.CreatedAt), formatTime(q.CreatedAt), formatTime(q.ValidUntil))
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err, "quotes.quote_number") {
			return 0, ErrDuplicateNumber
		}
		return 0, fmt.Errorf("insert quote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read quote id: %w", err)
	}

	if err := insertItems(ctx, tx, id, q.Items); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit quote transaction: %w", err)
	}
	return id, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, quoteID int64, items []Item) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quote_items (
			quote_id,
			product_type,
			model_id,
			model_name,
			size,
			color_id,
			special_monument_id,
			length,
			breadth,
			sqft,
			cubic_feet,
			quantity,
			unit_price,
			total_price
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare quote item insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx,
			quoteID, it.ProductType, it.ModelID, it.ModelName, it.Size,
			nullableID(it.ColorID), nullableID(it.SpecialMonumentID),
			it.Length, it.Breadth, it.SquareFeet, it.CubicFeet,
			it.Quantity, it.UnitPrice, it.TotalPrice,
		); err != nil {
			return fmt.Errorf("insert quote item %d: %w", i, err)
		}
	}
	return nil
}

// Get loads a quote with its customer and items, resolving display names for
// models, colors and special monuments.
func (s *Store) Get(ctx context.Context, id int64) (Quote, error) {
	var q Quote
	var createdAt, updatedAt, validUntil string
	err := s.db.QueryRowContext(ctx, `
		SELECT
			q.id, q.quote_number, q.customer_id, q.status, q.commission_rate,
			q.commission_amount, q.total_amount, q.created_by, q.created_at,
			q.updated_at, q.valid_until,
			c.name, c.company, c.email, c.phone, c.address, c.city, c.state, c.postal_code
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		WHERE q.id = ?
	`, id).Scan(
		&q.ID, &q.Number, &q.CustomerID, &q.Status, &q.CommissionRate,
		&q.CommissionAmount, &q.TotalAmount, &q.CreatedBy, &createdAt,
		&updatedAt, &validUntil,
		&q.Customer.Name, &q.Customer.Company, &q.Customer.Email, &q.Customer.Phone,
		&q.Customer.Address, &q.Customer.City, &q.Customer.State, &q.Customer.PostalCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("load quote %d: %w", id, err)
	}
	q.Customer.ID = q.CustomerID
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	q.ValidUntil = parseTime(validUntil)

	items, err := s.items(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	q.Items = items
	return q, nil
}

func (s *Store) items(ctx context.Context, quoteID int64) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			qi.id, qi.product_type, qi.model_id,
			COALESCE(CASE qi.product_type
				WHEN 'sertop' THEN (SELECT model FROM sertop_products WHERE id = qi.model_id)
				WHEN 'base' THEN (SELECT model FROM base_products WHERE id = qi.model_id)
				WHEN 'marker' THEN (SELECT model FROM marker_products WHERE id = qi.model_id)
				WHEN 'slant' THEN (SELECT model FROM slant_products WHERE id = qi.model_id)
			END, qi.model_name),
			qi.size,
			COALESCE(qi.color_id, 0), COALESCE(sc.color_name, ''),
			COALESCE(qi.special_monument_id, 0), COALESCE(sm.sp_name, ''),
			qi.length, qi.breadth, qi.sqft, qi.cubic_feet,
			qi.quantity, qi.unit_price, qi.total_price
		FROM quote_items qi
		LEFT JOIN stone_color_rates sc ON sc.id = qi.color_id
		LEFT JOIN special_monuments sm ON sm.id = qi.special_monument_id
		WHERE qi.quote_id = ?
		ORDER BY qi.id
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load quote %d items: %w", quoteID, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		var productType string
		if err := rows.Scan(
			&it.ID, &productType, &it.ModelID, &it.ModelName, &it.Size,
			&it.ColorID, &it.ColorName, &it.SpecialMonumentID, &it.SpecialMonumentName,
			&it.Length, &it.Breadth, &it.SquareFeet, &it.CubicFeet,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		it.ProductType = pricing.ProductType(productType)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote items: %w", err)
	}
	return items, nil
}

// ListFilter narrows List. Query matches quote number or customer name.
type ListFilter struct {
	Query  string
	Status Status
	Limit  int
}

// List returns quote headers, newest first, without items.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Quote, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT q.id, q.quote_number, q.customer_id, c.name, q.status,
			q.commission_rate, q.commission_amount, q.total_amount, q.created_by,
			q.created_at, q.valid_until
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
	`
	var where []string
	var args []any
	if term := strings.TrimSpace(f.Query); term != "" {
		where = append(where, `(q.quote_number LIKE ? OR c.name LIKE ?)`)
		like := "%" + term + "%"
		args = append(args, like, like)
	}
	if f.Status != "" {
		where = append(where, `q.status = ?`)
		args = append(args, f.Status)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY q.created_at DESC, q.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := []Quote{}
	for rows.Next() {
		var q Quote
		var createdAt, validUntil string
		if err := rows.Scan(&q.ID, &q.Number, &q.CustomerID, &q.Customer.Name, &q.Status,
			&q.CommissionRate, &q.CommissionAmount, &q.TotalAmount, &q.CreatedBy,
			&createdAt, &validUntil); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Customer.ID = q.CustomerID
		q.CreatedAt = parseTime(createdAt)
		q.ValidUntil = parseTime(validUntil)
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

// Customer loads the customer a quote is addressed to.
func (s *Store) Customer(ctx context.Context, id int64) (Customer, error) {
	c := Customer{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, company, email, phone, address, city, state, postal_code
		FROM customers
		WHERE id = ?
	`, id).Scan(&c.Name, &c.Company, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.PostalCode)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: #%d", ErrCustomerNotFound, id)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("load customer %d: %w", id, err)
	}
	return c, nil
}

// UpdateStatus moves a quote from one status to another. It fails with
// ErrStale when the stored status is no longer from.
func (s *Store) UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE quotes
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, to, formatTime(at), id, from)
	if err != nil {
		return fmt.Errorf("update quote %d status: %w", id, err)
	}
	return s.expectOne(ctx, result, id, ErrStale)
}

// ReplaceItems swaps every item of a draft quote and stores the new totals.
func (s *Store) ReplaceItems(ctx context.Context, id int64, items []Item, totals pricing.Totals, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quote items transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE quotes
		SET commission_amount = ?, total_amount = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, totals.CommissionAmount, totals.Total, formatTime(at), id, StatusDraft)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update quote %d totals: %w", id, err)
	}
	if err := s.expectOne(ctx, result, id, ErrFrozen); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete quote %d items: %w", id, err)
	}
	if err := insertItems(ctx, tx, id, items); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quote items transaction: %w", err)
	}
	return nil
}

// Delete removes a quote and, by cascade, its items. Converted quotes stay.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ? AND status != ?`, id, StatusConverted)
	if err != nil {
		return fmt.Errorf("delete quote %d: %w", id, err)
	}
	return s.expectOne(ctx, result, id, ErrConverted)
}

// expectOne maps a zero-row write to ErrNotFound when the quote is gone and
// to guardErr when it exists but did not match the guard.
func (s *Store) expectOne(ctx context.Context, result sql.Result, id int64, guardErr error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows for quote %d: %w", id, err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check quote %d existence: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	return guardErr
}

func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
