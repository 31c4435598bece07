// Package document builds and renders the printable quote and the order
// draft. All document money math goes through BuildQuote and BuildDraft.
package document

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

// Terms are printed under every quote.
var Terms = []string{
	"This quote is valid for 30 days from the date of issue.",
	"50% advance payment is required to confirm the order.",
	"Delivery time will be confirmed after order confirmation.",
	"Prices are subject to change without prior notice.",
	"All disputes are subject to local jurisdiction.",
}

// Company is the letterhead printed in headers and footers.
type Company struct {
	Name    string
	Tagline string
	Phone   string
	Email   string
}

type Customer struct {
	Name       string
	Company    string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
}

// Lines returns the non-empty customer block lines in print order.
func (c Customer) Lines() []string {
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !strings.EqualFold(s, "null") {
			out = append(out, s)
		}
	}
	add(c.Name)
	add(c.Company)
	add(c.Address)
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(c.City, c.State), ", ") + " " + strings.TrimSpace(c.PostalCode))
	add(cityLine)
	if p := strings.TrimSpace(c.Phone); p != "" {
		add("Phone: " + p)
	}
	if e := strings.TrimSpace(c.Email); e != "" {
		add("Email: " + e)
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, "null") {
			out = append(out, v)
		}
	}
	return out
}

// LineInput is one item as either entry mode supplies it. UnitPrice is
// the pre-commission price of one piece.
type LineInput struct {
	ProductType     pricing.ProductType
	Model           string
	Color           string
	SpecialMonument string
	Length          float64
	Breadth         float64
	Size            float64
	Quantity        int
	UnitPrice       float64
}

// QuoteInput is everything BuildQuote needs, independent of where it came from.
type QuoteInput struct {
	Number         string
	Date           time.Time
	CustomerID     int64
	Customer       Customer
	CommissionRate float64
	Items          []LineInput
}

// Row is one printed table row. Prices include the row's commission share.
type Row struct {
	Description string
	Dimensions  string
	CubicFeet   float64
	Quantity    int
	UnitPrice   float64
	Total       float64
}

// Quote is a fully computed printable quote.
type Quote struct {
	Number         string
	Date           time.Time
	Customer       Customer
	Rows           []Row
	TotalCubicFeet float64
	Totals         pricing.Totals
	Capacity       pricing.CapacityAdvice
	Terms          []string
}

// GrandTotal is the quote-level subtotal plus commission.
func (q Quote) GrandTotal() float64 { return q.Totals.Total }

// FromQuote maps a stored quote for the saved entry mode.
func FromQuote(q quote.Quote) QuoteInput {
	in := QuoteInput{
		Number:         q.Number,
		Date:           q.CreatedAt,
		CustomerID:     q.CustomerID,
		CommissionRate: q.CommissionRate,
		Customer: Customer{
			Name:       q.Customer.Name,
			Company:    q.Customer.Company,
			Email:      q.Customer.Email,
			Phone:      q.Customer.Phone,
			Address:    q.Customer.Address,
			City:       q.Customer.City,
			State:      q.Customer.State,
			PostalCode: q.Customer.PostalCode,
		},
	}
	for _, it := range q.Items {
		in.Items = append(in.Items, LineInput{
			ProductType:     it.ProductType,
			Model:           it.ModelName,
			Color:           it.ColorName,
			SpecialMonument: it.SpecialMonumentName,
			Length:          it.Length,
			Breadth:         it.Breadth,
			Size:            it.Size,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
		})
	}
	return in
}

// BuildQuote recomputes cubic feet, commission and capacity for a quote.
// Both entry modes go through here, so identical inputs print identically.
func BuildQuote(in QuoteInput) (Quote, error) {
	if err := pricing.ValidateRate(in.CommissionRate); err != nil {
		return Quote{}, err
	}

	lines := make([]pricing.Line, len(in.Items))
	for i, it := range in.Items {
		if math.IsNaN(it.UnitPrice) || it.UnitPrice < 0 {
			return Quote{}, fmt.Errorf("item %d: %w", i, pricing.ErrInvalidPrice)
		}
		l, err := pricing.NewLine(it.ProductType, it.Length, it.Breadth, it.Size, it.Quantity, it.UnitPrice)
		if err != nil {
			return Quote{}, fmt.Errorf("item %d: %w", i, err)
		}
		lines[i] = l
	}

	summary := pricing.Summarize(lines, in.CommissionRate)
	doc := Quote{
		Number:         in.Number,
		Date:           in.Date,
		Customer:       in.Customer,
		Rows:           make([]Row, len(in.Items)),
		TotalCubicFeet: summary.TotalCubicFeet,
		Totals:         summary.Totals,
		Capacity:       summary.Capacity,
		Terms:          Terms,
	}
	for i, it := range in.Items {
		d := summary.Lines[i]
		doc.Rows[i] = Row{
			Description: Description(it),
			Dimensions:  Dimensions(it.ProductType, it.Length, it.Breadth, it.Size),
			CubicFeet:   d.CubicFeet,
			Quantity:    d.Quantity,
			UnitPrice:   pricing.Round2(d.UnitPriceWithCommission),
			Total:       pricing.Round2(d.TotalWithCommission),
		}
	}
	return doc, nil
}

// Description joins the capitalized type with model, color and monument.
func Description(it LineInput) string {
	parts := []string{it.ProductType.Label()}
	parts = append(parts, nonEmpty(it.Model, it.Color, it.SpecialMonument)...)
	return strings.Join(parts, " - ")
}

// Dimensions prints L x B x H in inches using the effective height.
func Dimensions(t pricing.ProductType, length, breadth, size float64) string {
	return fmt.Sprintf("%s x %s x %s", inches(length), inches(breadth), inches(pricing.EffectiveHeight(t, size)))
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + `"`
}

// QuoteFilename is Quote_{number}.pdf, or Quote.pdf for unsaved quotes.
func QuoteFilename(number string) string {
	safe := sanitizeFilename(number)
	if safe == "" {
		return "Quote.pdf"
	}
	return "Quote_" + safe + ".pdf"
}

func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			if !strings.HasSuffix(b.String(), "_") {
				b.WriteRune('_')
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

func money(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(pricing.Round2(v)), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
