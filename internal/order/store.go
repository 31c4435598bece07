package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

const timeLayout = time.RFC3339

// Store persists orders, their items and the status history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConvertQuote creates an order from a sent or accepted quote, copies its
// items with manufacturing tracking, records the first history entry and
// marks the quote converted, all in one transaction.
func (s *Store) ConvertQuote(ctx context.Context, quoteID int64, by string) (Order, error) {
	now := s.now().UTC().Truncate(time.Second)
	by = actor(by)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin conversion transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status quote.Status
	o := Order{QuoteID: quoteID, Status: StatusPending, CreatedBy: by, CreatedAt: now}
	err = tx.QueryRowContext(ctx, `
		SELECT status, customer_id, total_amount
		FROM quotes
		WHERE id = ?
	`, quoteID).Scan(&status, &o.CustomerID, &o.TotalAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: #%d", ErrQuoteNotFound, quoteID)
	}
	if err != nil {
		return Order{}, fmt.Errorf("load quote %d: %w", quoteID, err)
	}
	if status == quote.StatusConverted {
		return Order{}, ErrAlreadyConverted
	}
	if !status.Convertible() {
		return Order{}, fmt.Errorf("%w: quote is %s", ErrNotConvertible, status)
	}

	items, err := quoteItems(ctx, tx, quoteID, now)
	if err != nil {
		return Order{}, err
	}

	o.Number = Number(now, quoteID)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (order_number, quote_id, customer_id, status, total_amount, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.Number, quoteID, o.CustomerID, o.Status, o.TotalAmount, by, now.Format(timeLayout))
	if err != nil {
		return Order{}, fmt.Errorf("insert order for quote %d: %w", quoteID, err)
	}
	if o.ID, err = result.LastInsertId(); err != nil {
		return Order{}, fmt.Errorf("read order id: %w", err)
	}

	if o.Items, err = insertItems(ctx, tx, o.ID, items); err != nil {
		return Order{}, err
	}

	entry := StatusEntry{Status: StatusPending, Notes: fmt.Sprintf("Order created from Quote #%d", quoteID), CreatedBy: by, CreatedAt: now}
	if entry.ID, err = appendHistory(ctx, tx, o.ID, entry); err != nil {
		return Order{}, err
	}
	o.History = []StatusEntry{entry}

	res, err := tx.ExecContext(ctx, `
		UPDATE quotes
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, quote.StatusConverted, now.Format(timeLayout), quoteID, status)
	if err != nil {
		return Order{}, fmt.Errorf("mark quote %d converted: %w", quoteID, err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return Order{}, fmt.Errorf("mark quote %d converted: %w", quoteID, quote.ErrStale)
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit conversion transaction: %w", err)
	}
	return o, nil
}

func quoteItems(ctx context.Context, tx *sql.Tx, quoteID int64, now time.Time) ([]Item, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_type, model_id, model_name, size,
			COALESCE(color_id, 0), COALESCE(special_monument_id, 0),
			length, breadth, quantity, unit_price, total_price
		FROM quote_items
		WHERE quote_id = ?
		ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load quote %d items: %w", quoteID, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var productType string
		if err := rows.Scan(&productType, &it.ModelID, &it.ModelName, &it.Size,
			&it.ColorID, &it.SpecialMonumentID,
			&it.Length, &it.Breadth, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		it.ProductType = pricing.ProductType(productType)
		it.CubicFeet = pricing.CubicFeet(it.ProductType, it.Length, it.Breadth, it.Size, it.Quantity)
		it.ManufacturingStatus = ManufacturingPending
		if it.ProductType != pricing.TypeRawMaterial {
			it.EstimatedCompletion = now.Add(ManufacturingLeadTime)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote items: %w", err)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []Item) ([]Item, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (
			order_id, product_type, model_id, model_name, size,
			color_id, special_monument_id, length, breadth, cubic_feet,
			quantity, unit_price, total_price, manufacturing_status, estimated_completion
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare order item insert: %w", err)
	}
	defer stmt.Close()

	out := make([]Item, len(items))
	for i, it := range items {
		var estimate any
		if !it.EstimatedCompletion.IsZero() {
			estimate = it.EstimatedCompletion.Format(timeLayout)
		}
		result, err := stmt.ExecContext(ctx,
			orderID, it.ProductType, it.ModelID, it.ModelName, it.Size,
			nullableID(it.ColorID), nullableID(it.SpecialMonumentID), it.Length, it.Breadth, it.CubicFeet,
			it.Quantity, it.UnitPrice, it.TotalPrice, it.ManufacturingStatus, estimate,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item %d: %w", i, err)
		}
		if it.ID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("read order item id: %w", err)
		}
		out[i] = it
	}
	return out, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func appendHistory(ctx context.Context, tx *sql.Tx, orderID int64, e StatusEntry) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, orderID, e.Status, e.Notes, e.CreatedBy, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert order %d status history: %w", orderID, err)
	}
	return result.LastInsertId()
}

// AppendStatus records a new order status. History rows are never updated.
func (s *Store) AppendStatus(ctx context.Context, orderID int64, status Status, notes, by string) (StatusEntry, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return StatusEntry{}, err
	}
	entry := StatusEntry{Status: status, Notes: notes, CreatedBy: actor(by), CreatedAt: s.now().UTC().Truncate(time.Second)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return StatusEntry{}, fmt.Errorf("begin order status transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, orderID)
	if err != nil {
		return StatusEntry{}, fmt.Errorf("update order %d status: %w", orderID, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return StatusEntry{}, fmt.Errorf("update order %d status: %w", orderID, err)
	} else if n == 0 {
		return StatusEntry{}, fmt.Errorf("%w: #%d", ErrNotFound, orderID)
	}

	if entry.ID, err = appendHistory(ctx, tx, orderID, entry); err != nil {
		return StatusEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return StatusEntry{}, fmt.Errorf("commit order status transaction: %w", err)
	}
	return entry, nil
}

// UpdateItemStatus moves one order item through manufacturing.
func (s *Store) UpdateItemStatus(ctx context.Context, itemID int64, status ManufacturingStatus) error {
	if _, err := ParseManufacturingStatus(string(status)); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE order_items SET manufacturing_status = ? WHERE id = ?`, status, itemID)
	if err != nil {
		return fmt.Errorf("update order item %d status: %w", itemID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order item %d status: %w", itemID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: #%d", ErrItemNotFound, itemID)
	}
	return nil
}

// Get loads an order with its items and full history, oldest first.
func (s *Store) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	var quoteID sql.NullInt64
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, quote_id, customer_id, status, total_amount, created_by, created_at
		FROM orders
		WHERE id = ?
	`, id).Scan(&o.ID, &o.Number, &quoteID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("load order %d: %w", id, err)
	}
	o.QuoteID = quoteID.Int64
	o.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	if o.Items, err = s.items(ctx, id); err != nil {
		return Order{}, err
	}
	if o.History, err = s.history(ctx, id); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Store) items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_type, model_id, model_name, size,
			COALESCE(color_id, 0), COALESCE(special_monument_id, 0),
			length, breadth, cubic_feet, quantity, unit_price, total_price,
			manufacturing_status, COALESCE(estimated_completion, '')
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d items: %w", orderID, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		var productType, estimate string
		if err := rows.Scan(&it.ID, &productType, &it.ModelID, &it.ModelName, &it.Size,
			&it.ColorID, &it.SpecialMonumentID,
			&it.Length, &it.Breadth, &it.CubicFeet, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&it.ManufacturingStatus, &estimate); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.ProductType = pricing.ProductType(productType)
		if estimate != "" {
			it.EstimatedCompletion, _ = time.Parse(timeLayout, estimate)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) history(ctx context.Context, orderID int64) ([]StatusEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, notes, created_by, created_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d history: %w", orderID, err)
	}
	defer rows.Close()

	entries := []StatusEntry{}
	for rows.Next() {
		var e StatusEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Status, &e.Notes, &e.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
