// Package order converts quotes into orders and tracks their progress.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrItemNotFound     = errors.New("order item not found")
	ErrQuoteNotFound    = errors.New("quote not found")
	ErrNotConvertible   = errors.New("only sent or accepted quotes can be converted")
	ErrAlreadyConverted = errors.New("quote already has an order")
	ErrInvalidStatus    = errors.New("invalid order status")
)

// SystemUser attributes history entries written without a signed-in user.
const SystemUser = "System"

// ManufacturingLeadTime is added to the order date to estimate completion of
// items that need manufacturing.
const ManufacturingLeadTime = 14 * 24 * time.Hour

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

type ManufacturingStatus string

const (
	ManufacturingPending    ManufacturingStatus = "pending"
	ManufacturingInProgress ManufacturingStatus = "in_progress"
	ManufacturingCompleted  ManufacturingStatus = "completed"
)

func ParseManufacturingStatus(raw string) (ManufacturingStatus, error) {
	s := ManufacturingStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case ManufacturingPending, ManufacturingInProgress, ManufacturingCompleted:
		return s, nil
	}
	return "", fmt.Errorf("%w: manufacturing %q", ErrInvalidStatus, raw)
}

type Item struct {
	ID                  int64
	ProductType         pricing.ProductType
	ModelID             int64
	ModelName           string
	Size                float64
	ColorID             int64
	SpecialMonumentID   int64
	Length              float64
	Breadth             float64
	CubicFeet           float64
	Quantity            int
	UnitPrice           float64
	TotalPrice          float64
	ManufacturingStatus ManufacturingStatus
	// EstimatedCompletion is zero for raw material, which ships as-is.
	EstimatedCompletion time.Time
}

type StatusEntry struct {
	ID        int64
	Status    Status
	Notes     string
	CreatedBy string
	CreatedAt time.Time
}

type Order struct {
	ID          int64
	Number      string
	QuoteID     int64
	CustomerID  int64
	Status      Status
	TotalAmount float64
	CreatedBy   string
	CreatedAt   time.Time
	Items       []Item
	History     []StatusEntry
}

// Number formats ORD-YYYYMMDD-NNNN from the conversion date and quote id.
func Number(at time.Time, quoteID int64) string {
	return fmt.Sprintf("ORD-%s-%04d", at.UTC().Format("20060102"), quoteID)
}

func actor(by string) string {
	if strings.TrimSpace(by) == "" {
		return SystemUser
	}
	return by
}
