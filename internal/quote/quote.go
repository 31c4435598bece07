// Package quote holds the quote aggregate, its persistence gateway and the
// service that prices and validates quotes before they are stored.
package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
)

var (
	ErrNotFound          = errors.New("quote not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrFrozen            = errors.New("quote items can only change while the quote is a draft")
	ErrInvalidTransition = errors.New("invalid quote status transition")
	ErrConverted         = errors.New("converted quotes cannot be deleted")
	ErrCatalogMiss       = errors.New("catalog entry not found")
	ErrUseConversion     = errors.New("quotes are converted through the order service")
	ErrStale             = errors.New("quote changed concurrently")
)

// ValidPeriod is how long a quote stays valid after creation.
const ValidPeriod = 30 * 24 * time.Hour

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusConverted Status = "converted"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent, StatusCancelled},
	StatusSent:     {StatusAccepted, StatusRejected, StatusCancelled, StatusConverted},
	StatusAccepted: {StatusConverted},
}

// ParseStatus validates a raw status name.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusConverted, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown quote status %q", raw)
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether items may still change.
func (s Status) Editable() bool { return s == StatusDraft }

// Terminal reports whether no further transition exists.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// Convertible reports whether an order may be created from a quote in s.
func (s Status) Convertible() bool { return s.CanTransitionTo(StatusConverted) }

type Customer struct {
	ID         int64
	Name       string
	Company    string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
}

// Item is a stored quote line. Prices are pre-commission. Zero ColorID or
// SpecialMonumentID means none.
type Item struct {
	ID                  int64
	ProductType         pricing.ProductType
	ModelID             int64
	ModelName           string
	Size                float64
	ColorID             int64
	ColorName           string
	SpecialMonumentID   int64
	SpecialMonumentName string
	Length              float64
	Breadth             float64
	SquareFeet          float64
	CubicFeet           float64
	Quantity            int
	UnitPrice           float64
	TotalPrice          float64
}

// Line recomputes the pricing line from the item's dimensions rather than its
// stored cubic feet snapshot.
func (it Item) Line() (pricing.Line, error) {
	return pricing.NewLine(it.ProductType, it.Length, it.Breadth, it.Size, it.Quantity, it.UnitPrice)
}

type Quote struct {
	ID               int64
	Number           string
	CustomerID       int64
	Customer         Customer
	Status           Status
	CommissionRate   float64
	CommissionAmount float64
	TotalAmount      float64
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ValidUntil       time.Time
	Items            []Item
}

// Lines returns the pricing lines for every item.
func (q Quote) Lines() ([]pricing.Line, error) {
	lines := make([]pricing.Line, len(q.Items))
	for i, it := range q.Items {
		l, err := it.Line()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		lines[i] = l
	}
	return lines, nil
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}
