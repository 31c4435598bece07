package quote

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Simplici0/stonequote/internal/catalog"
	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/testutil"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

type fixture struct {
	db         *sql.DB
	svc        *Service
	customerID int64
	baseID     int64
	markerID   int64
	redID      int64
	heartID    int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := testutil.SeededDB(t)
	return fixture{
		db:         database,
		svc:        NewService(NewStore(database), catalog.NewStore(database), WithClock(func() time.Time { return fixedNow })),
		customerID: testutil.ID(t, database, `SELECT id FROM customers LIMIT 1`),
		baseID:     testutil.ID(t, database, `SELECT id FROM base_products WHERE model = 'BASE-2412'`),
		markerID:   testutil.ID(t, database, `SELECT id FROM marker_products LIMIT 1`),
		redID:      testutil.ID(t, database, `SELECT id FROM stone_color_rates WHERE color_name = 'Indian Red'`),
		heartID:    testutil.ID(t, database, `SELECT id FROM special_monuments WHERE sp_name = 'Heart Shape'`),
	}
}

func (f fixture) baseItem(qty int) ItemRequest {
	return ItemRequest{ProductType: pricing.TypeBase, ModelID: f.baseID, Length: 24, Breadth: 12, Quantity: qty}
}

func (f fixture) count(t *testing.T, query string) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestCreate_BaseItemWithCommission(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:     f.customerID,
		CommissionRate: 10,
		Items:          []ItemRequest{f.baseItem(2)},
	}, "sales@angelstones.example")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !regexp.MustCompile(`^Q20260314\d{4}$`).MatchString(q.Number) {
		t.Fatalf("quote number = %q", q.Number)
	}
	if q.Status != StatusDraft {
		t.Fatalf("status = %q, want draft", q.Status)
	}
	nearlyEqual(t, "commission", q.CommissionAmount, 20)
	nearlyEqual(t, "total", q.TotalAmount, 220)
	if !q.ValidUntil.Equal(fixedNow.Add(30 * 24 * time.Hour)) {
		t.Fatalf("valid until = %v", q.ValidUntil)
	}

	stored, err := f.svc.Store().Get(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("stored %d items, want 1", len(stored.Items))
	}
	it := stored.Items[0]
	if it.ModelName != "BASE-2412" || it.Size != 6 {
		t.Fatalf("unexpected stored item: %+v", it)
	}
	nearlyEqual(t, "unit price", it.UnitPrice, 100)
	nearlyEqual(t, "total price", it.TotalPrice, 200)
	nearlyEqual(t, "cubic feet", it.CubicFeet, 2)
	if stored.CreatedBy != "sales@angelstones.example" || stored.Customer.Name == "" {
		t.Fatalf("unexpected header: %+v", stored)
	}
}

func TestPrice_SurchargesAndMarkerHeight(t *testing.T) {
	f := newFixture(t)

	it, err := f.svc.Price(context.Background(), 0, ItemRequest{
		ProductType:       pricing.TypeMarker,
		ModelID:           f.markerID,
		Length:            24,
		Breadth:           12,
		Quantity:          3,
		ColorID:           f.redID,
		SpecialMonumentID: f.heartID,
	})
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	// 40/sqft * 2 sqft = 80, +10% color = 88, +20% monument = 105.60
	nearlyEqual(t, "unit price", it.UnitPrice, 105.6)
	nearlyEqual(t, "total price", it.TotalPrice, 316.8)
	nearlyEqual(t, "cubic feet", it.CubicFeet, 2)
	if it.ColorName != "Indian Red" || it.SpecialMonumentName != "Heart Shape" {
		t.Fatalf("names not resolved: %+v", it)
	}
}

func TestPrice_NonCatalogUsesPostedPrice(t *testing.T) {
	f := newFixture(t)

	it, err := f.svc.Price(context.Background(), 0, ItemRequest{
		ProductType: pricing.TypeSlab, ModelName: "Custom slab", Length: 48, Breadth: 24, Size: 3, Quantity: 1, BasePrice: 310,
	})
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	nearlyEqual(t, "unit price", it.UnitPrice, 310)
	nearlyEqual(t, "cubic feet", it.CubicFeet, 2)

	_, err = f.svc.Price(context.Background(), 4, ItemRequest{ProductType: pricing.TypeSlab, Length: 48, Breadth: 24, Quantity: 1})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "items[4]" || !errors.Is(err, pricing.ErrInvalidPrice) {
		t.Fatalf("err = %v, want items[4] ErrInvalidPrice", err)
	}
}

func TestCreate_CatalogMissRejectsWithoutPersisting(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: f.customerID,
		Items: []ItemRequest{
			f.baseItem(1),
			{ProductType: pricing.TypeBase, ModelID: 9999, Length: 24, Breadth: 12, Quantity: 1},
		},
	}, "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "items[1].modelId" {
		t.Fatalf("err = %v, want items[1].modelId validation error", err)
	}
	if !errors.Is(err, ErrCatalogMiss) {
		t.Fatalf("err = %v, want ErrCatalogMiss", err)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM quotes`); n != 0 {
		t.Fatalf("%d quotes persisted after rejection", n)
	}
}

func TestCreate_ValidatesHeader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := f.svc.Create(ctx, CreateRequest{CustomerID: 9999, Items: []ItemRequest{f.baseItem(1)}}, ""); !errors.As(err, &vErr) || vErr.Field != "customer_id" {
		t.Fatalf("unknown customer err = %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID}, ""); !errors.As(err, &vErr) || vErr.Field != "items" {
		t.Fatalf("no items err = %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, CommissionRate: 101, Items: []ItemRequest{f.baseItem(1)}}, ""); !errors.Is(err, pricing.ErrInvalidRate) {
		t.Fatalf("rate err = %v", err)
	}
}

func TestStoreCreate_ItemFailureRollsBackHeader(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.db)

	_, err := store.Create(context.Background(), Quote{
		Number:     "Q202603140001",
		CustomerID: f.customerID,
		Status:     StatusDraft,
		CreatedAt:  fixedNow,
		ValidUntil: fixedNow.Add(ValidPeriod),
		Items: []Item{
			{ProductType: pricing.TypeBase, ModelID: f.baseID, Length: 24, Breadth: 12, Quantity: 1, UnitPrice: 100, TotalPrice: 100},
			{ProductType: pricing.TypeBase, ModelID: f.baseID, Length: 24, Breadth: 12, Quantity: 0, UnitPrice: 100, TotalPrice: 0},
		},
	})
	if err == nil {
		t.Fatalf("Create succeeded with an invalid item")
	}
	if n := f.count(t, `SELECT COUNT(*) FROM quotes`); n != 0 {
		t.Fatalf("quote header persisted after item failure: %d rows", n)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM quote_items`); n != 0 {
		t.Fatalf("quote items persisted after item failure: %d rows", n)
	}
}

func TestCreate_RetriesDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	numbers := []string{"Q202603140007", "Q202603140007", "Q202603140008"}
	svc := NewService(NewStore(f.db), catalog.NewStore(f.db),
		WithClock(func() time.Time { return fixedNow }),
		WithNumberGenerator(func(time.Time) string {
			n := numbers[0]
			numbers = numbers[1:]
			return n
		}),
	)
	req := CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1)}}

	first, err := svc.Create(context.Background(), req, "")
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := svc.Create(context.Background(), req, "")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.Number != "Q202603140007" || second.Number != "Q202603140008" {
		t.Fatalf("numbers = %q, %q", first.Number, second.Number)
	}
}

func TestPreview_MatchesStoredTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, CreateRequest{
		CustomerID:     f.customerID,
		CommissionRate: 7.5,
		Items: []ItemRequest{
			f.baseItem(2),
			{ProductType: pricing.TypeMarker, ModelID: f.markerID, Length: 24, Breadth: 12, Quantity: 5, ColorID: f.redID},
		},
	}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := f.svc.Preview(ctx, q.ID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	nearlyEqual(t, "total", p.Summary.Totals.Total, q.TotalAmount)
	nearlyEqual(t, "commission", p.Summary.Totals.CommissionAmount, q.CommissionAmount)

	sum := 0.0
	for _, l := range p.Summary.Lines {
		sum += l.TotalWithCommission
	}
	if math.Abs(sum-q.TotalAmount) > 0.01 {
		t.Fatalf("distributed sum %v, stored total %v", sum, q.TotalAmount)
	}
	if p.Summary.Capacity.Status != pricing.CapacityWarning {
		t.Fatalf("capacity status = %q", p.Summary.Capacity.Status)
	}
}

func TestTransitionAndFreeze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1)}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	replaced, err := f.svc.ReplaceItems(ctx, q.ID, []ItemRequest{f.baseItem(3)})
	if err != nil {
		t.Fatalf("ReplaceItems on draft: %v", err)
	}
	nearlyEqual(t, "replaced total", replaced.TotalAmount, 300)

	if _, err := f.svc.Transition(ctx, q.ID, StatusSent); err != nil {
		t.Fatalf("draft -> sent: %v", err)
	}
	if _, err := f.svc.ReplaceItems(ctx, q.ID, []ItemRequest{f.baseItem(1)}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("ReplaceItems on sent err = %v, want ErrFrozen", err)
	}
	if _, err := f.svc.Transition(ctx, q.ID, StatusDraft); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("sent -> draft err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Transition(ctx, q.ID, StatusConverted); !errors.Is(err, ErrUseConversion) {
		t.Fatalf("sent -> converted err = %v, want ErrUseConversion", err)
	}
	if _, err := f.svc.Transition(ctx, 9999, StatusSent); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing quote err = %v, want ErrNotFound", err)
	}
}

func TestTransition_FinalStatusesRejectEveryMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1)}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Transition(ctx, q.ID, StatusCancelled); err != nil {
		t.Fatalf("draft -> cancelled: %v", err)
	}
	_, err = f.svc.Transition(ctx, q.ID, StatusSent)
	if !errors.Is(err, ErrInvalidTransition) || !strings.Contains(err.Error(), "final") {
		t.Fatalf("cancelled -> sent err = %v, want a final-status ErrInvalidTransition", err)
	}
}

func TestStoreUpdateStatus_StaleGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1)}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Store().UpdateStatus(ctx, q.ID, StatusSent, StatusAccepted, fixedNow); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
}

func TestDelete_CascadesItemsAndKeepsConverted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1), f.baseItem(2)}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.Delete(ctx, q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM quote_items`); n != 0 {
		t.Fatalf("%d items left after delete", n)
	}
	if err := f.svc.Delete(ctx, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	kept, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1)}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.db.Exec(`UPDATE quotes SET status = 'converted' WHERE id = ?`, kept.ID); err != nil {
		t.Fatalf("mark converted: %v", err)
	}
	if err := f.svc.Delete(ctx, kept.ID); !errors.Is(err, ErrConverted) {
		t.Fatalf("delete converted err = %v, want ErrConverted", err)
	}
}

func TestList_SearchesNumberAndCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, CreateRequest{CustomerID: f.customerID, Items: []ItemRequest{f.baseItem(1)}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byNumber, err := f.svc.Store().List(ctx, ListFilter{Query: q.Number})
	if err != nil || len(byNumber) != 1 {
		t.Fatalf("List by number = %d, %v", len(byNumber), err)
	}
	byCustomer, err := f.svc.Store().List(ctx, ListFilter{Query: "Demo"})
	if err != nil || len(byCustomer) != 1 || byCustomer[0].Customer.Name != "Demo Memorials" {
		t.Fatalf("List by customer = %+v, %v", byCustomer, err)
	}
	none, err := f.svc.Store().List(ctx, ListFilter{Status: StatusSent})
	if err != nil || len(none) != 0 {
		t.Fatalf("List sent = %d, %v", len(none), err)
	}
}
