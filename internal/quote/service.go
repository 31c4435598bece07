package quote

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Simplici0/stonequote/internal/catalog"
	"github.com/Simplici0/stonequote/internal/pricing"
)

// Catalog is the product lookup the service prices items against.
type Catalog interface {
	Product(ctx context.Context, t pricing.ProductType, id int64) (catalog.Product, error)
	Color(ctx context.Context, id int64) (catalog.StoneColor, error)
	SpecialMonument(ctx context.Context, id int64) (catalog.SpecialMonument, error)
}

const numberAttempts = 5

// Service validates, prices and stores quotes.
type Service struct {
	store   *Store
	catalog Catalog
	now     func() time.Time
	number  func(time.Time) string
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNumberGenerator overrides how quote numbers are produced.
func WithNumberGenerator(gen func(time.Time) string) Option {
	return func(s *Service) { s.number = gen }
}

func NewService(store *Store, cat Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		now:     time.Now,
		number:  NewNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the gateway for read paths that need no pricing.
func (s *Service) Store() *Store { return s.store }

// NewNumber returns Q + YYYYMMDD + four random digits.
func NewNumber(at time.Time) string {
	return fmt.Sprintf("Q%s%04d", at.UTC().Format("20060102"), rand.Intn(10000))
}

// Price resolves an item against the catalog and computes its line values.
// Catalogued types take their per-square-foot price and thickness from the
// catalog; other types must carry their own base price.
func (s *Service) Price(ctx context.Context, index int, req ItemRequest) (Item, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", index, name) }

	it := Item{
		ProductType:       req.ProductType,
		ModelID:           req.ModelID,
		ModelName:         req.ModelName,
		Size:              req.Size,
		ColorID:           req.ColorID,
		SpecialMonumentID: req.SpecialMonumentID,
		Length:            req.Length,
		Breadth:           req.Breadth,
		Quantity:          req.Quantity,
	}

	basePrice := req.BasePrice
	if req.ProductType.Catalogued() {
		p, err := s.catalog.Product(ctx, req.ProductType, req.ModelID)
		if err != nil {
			return Item{}, catalogErr(field("modelId"), err)
		}
		it.ModelName = p.Model
		it.Size = p.Size
		basePrice = pricing.PiecePrice(p.BasePrice, pricing.SquareFeet(req.Length, req.Breadth))
	}

	var colorPct, monumentPct float64
	if req.ColorID != 0 {
		c, err := s.catalog.Color(ctx, req.ColorID)
		if err != nil {
			return Item{}, catalogErr(field("colorId"), err)
		}
		it.ColorName = c.Name
		colorPct = c.PriceIncreasePercentage
	}
	if req.SpecialMonumentID != 0 {
		m, err := s.catalog.SpecialMonument(ctx, req.SpecialMonumentID)
		if err != nil {
			return Item{}, catalogErr(field("specialMonumentId"), err)
		}
		it.SpecialMonumentName = m.Name
		monumentPct = m.Percentage
	}

	result, err := pricing.Calculate(pricing.ItemInput{
		Type:            it.ProductType,
		BasePrice:       basePrice,
		Length:          it.Length,
		Breadth:         it.Breadth,
		Size:            it.Size,
		Quantity:        it.Quantity,
		ColorPercent:    colorPct,
		MonumentPercent: monumentPct,
	})
	if err != nil {
		return Item{}, invalid(fmt.Sprintf("items[%d]", index), err)
	}

	it.UnitPrice = result.UnitPrice
	it.TotalPrice = result.TotalPrice
	it.SquareFeet = result.SquareFeet
	it.CubicFeet = result.CubicFeet
	return it, nil
}

func catalogErr(field string, err error) error {
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrUnknownType) {
		return &ValidationError{Field: field, Message: "not found in catalog", Err: fmt.Errorf("%w: %v", ErrCatalogMiss, err)}
	}
	return err
}

func (s *Service) priceAll(ctx context.Context, reqs []ItemRequest) ([]Item, []pricing.Line, error) {
	if len(reqs) == 0 {
		return nil, nil, invalid("items", errNoItems)
	}
	items := make([]Item, len(reqs))
	lines := make([]pricing.Line, len(reqs))
	for i, req := range reqs {
		it, err := s.Price(ctx, i, req)
		if err != nil {
			return nil, nil, err
		}
		items[i] = it
		lines[i] = pricing.Line{
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Total:     it.TotalPrice,
			CubicFeet: it.CubicFeet,
		}
	}
	return items, lines, nil
}

// Create validates and prices a new draft quote and stores it atomically.
func (s *Service) Create(ctx context.Context, req CreateRequest, createdBy string) (Quote, error) {
	if err := pricing.ValidateRate(req.CommissionRate); err != nil {
		return Quote{}, invalid("commission_rate", err)
	}
	customer, err := s.store.Customer(ctx, req.CustomerID)
	if errors.Is(err, ErrCustomerNotFound) {
		return Quote{}, &ValidationError{Field: "customer_id", Message: "customer not found", Err: err}
	}
	if err != nil {
		return Quote{}, err
	}

	items, lines, err := s.priceAll(ctx, req.Items)
	if err != nil {
		return Quote{}, err
	}
	totals := pricing.ComputeTotals(lines, req.CommissionRate)

	now := s.now().UTC().Truncate(time.Second)
	q := Quote{
		CustomerID:       req.CustomerID,
		Customer:         customer,
		Status:           StatusDraft,
		CommissionRate:   req.CommissionRate,
		CommissionAmount: totals.CommissionAmount,
		TotalAmount:      totals.Total,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
		ValidUntil:       now.Add(ValidPeriod),
		Items:            items,
	}

	for attempt := 0; attempt < numberAttempts; attempt++ {
		q.Number = s.number(now)
		id, err := s.store.Create(ctx, q)
		if errors.Is(err, ErrDuplicateNumber) {
			continue
		}
		if err != nil {
			return Quote{}, err
		}
		q.ID = id
		return q, nil
	}
	return Quote{}, fmt.Errorf("allocate quote number: %w", ErrDuplicateNumber)
}

// Preview is a stored quote with its full commission breakdown.
type Preview struct {
	Quote   Quote
	Summary pricing.Summary
}

// Preview loads a quote and recomputes its breakdown from item dimensions.
func (s *Service) Preview(ctx context.Context, id int64) (Preview, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	lines, err := q.Lines()
	if err != nil {
		return Preview{}, fmt.Errorf("quote %d: %w", id, err)
	}
	return Preview{Quote: q, Summary: pricing.Summarize(lines, q.CommissionRate)}, nil
}

// Transition applies a lifecycle move other than conversion.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (Quote, error) {
	if to == StatusConverted {
		return Quote{}, ErrUseConversion
	}
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if q.Status.Terminal() {
		return Quote{}, fmt.Errorf("%w: %s quotes are final", ErrInvalidTransition, q.Status)
	}
	if !q.Status.CanTransitionTo(to) {
		return Quote{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, q.Status, to)
	}
	now := s.now()
	if err := s.store.UpdateStatus(ctx, id, q.Status, to, now); err != nil {
		return Quote{}, err
	}
	q.Status = to
	q.UpdatedAt = now.UTC().Truncate(time.Second)
	return q, nil
}

// ReplaceItems re-prices and swaps the items of a draft quote.
func (s *Service) ReplaceItems(ctx context.Context, id int64, reqs []ItemRequest) (Quote, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if !q.Status.Editable() {
		return Quote{}, ErrFrozen
	}

	items, lines, err := s.priceAll(ctx, reqs)
	if err != nil {
		return Quote{}, err
	}
	totals := pricing.ComputeTotals(lines, q.CommissionRate)
	if err := s.store.ReplaceItems(ctx, id, items, totals, s.now()); err != nil {
		return Quote{}, err
	}
	return s.store.Get(ctx, id)
}

// Delete removes a quote that has not been converted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
