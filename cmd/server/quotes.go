package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Simplici0/stonequote/internal/document"
	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

type quotesViewData struct {
	baseViewData
	Query  string
	Status string
	Quotes []quote.Quote
}

type previewLine struct {
	Description string  `json:"description"`
	Dimensions  string  `json:"dimensions"`
	CubicFeet   float64 `json:"cubic_feet"`
	Quantity    int     `json:"quantity"`
	BasePrice   float64 `json:"base_price"`
	BaseTotal   float64 `json:"base_total"`
	Commission  float64 `json:"commission"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

type previewTotals struct {
	Subtotal         float64 `json:"subtotal"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
	Total            float64 `json:"total"`
}

type previewCapacity struct {
	TotalCubicFeet float64 `json:"total_cubic_feet"`
	Percentage     float64 `json:"percentage"`
	Containers     int     `json:"containers"`
	Status         string  `json:"status"`
	Note           string  `json:"note"`
}

// quotePreview is served as JSON and rendered by quote_preview.html.
type quotePreview struct {
	baseViewData
	ID         int64           `json:"id"`
	Number     string          `json:"quote_number"`
	Status     string          `json:"status"`
	Customer   string          `json:"customer"`
	CreatedAt  string          `json:"created_at"`
	ValidUntil string          `json:"valid_until"`
	Lines      []previewLine   `json:"items"`
	Totals     previewTotals   `json:"totals"`
	Capacity   previewCapacity `json:"capacity"`
}

func newQuotePreview(p quote.Preview) quotePreview {
	q := p.Quote
	out := quotePreview{
		ID:         q.ID,
		Number:     q.Number,
		Status:     string(q.Status),
		Customer:   q.Customer.Name,
		CreatedAt:  q.CreatedAt.Format("2006-01-02"),
		ValidUntil: q.ValidUntil.Format("2006-01-02"),
		Lines:      make([]previewLine, len(q.Items)),
		Totals: previewTotals{
			Subtotal:         p.Summary.Totals.Subtotal,
			CommissionRate:   p.Summary.Totals.CommissionRate,
			CommissionAmount: p.Summary.Totals.CommissionAmount,
			Total:            p.Summary.Totals.Total,
		},
		Capacity: previewCapacity{
			TotalCubicFeet: p.Summary.Capacity.TotalCubicFeet,
			Percentage:     p.Summary.Capacity.Percentage,
			Containers:     p.Summary.Capacity.Containers,
			Status:         string(p.Summary.Capacity.Status),
			Note:           p.Summary.Capacity.Note,
		},
	}
	for i, it := range q.Items {
		d := p.Summary.Lines[i]
		out.Lines[i] = previewLine{
			Description: document.Description(document.LineInput{
				ProductType:     it.ProductType,
				Model:           it.ModelName,
				Color:           it.ColorName,
				SpecialMonument: it.SpecialMonumentName,
			}),
			Dimensions: document.Dimensions(it.ProductType, it.Length, it.Breadth, it.Size),
			CubicFeet:  d.CubicFeet,
			Quantity:   d.Quantity,
			BasePrice:  d.UnitPrice,
			BaseTotal:  d.Total,
			Commission: pricing.Round2(d.Commission),
			UnitPrice:  pricing.Round2(d.UnitPriceWithCommission),
			Total:      pricing.Round2(d.TotalWithCommission),
		}
	}
	return out
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	filter := quote.ListFilter{Query: query}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := quote.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}

	quotes, err := s.quotes.Store().List(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, "failed to load quotes", err)
		return
	}

	if wantsJSON(r) {
		type listed struct {
			ID         int64   `json:"id"`
			Number     string  `json:"quote_number"`
			Customer   string  `json:"customer"`
			Status     string  `json:"status"`
			Total      float64 `json:"total_amount"`
			CreatedAt  string  `json:"created_at"`
			ValidUntil string  `json:"valid_until"`
		}
		out := make([]listed, len(quotes))
		for i, q := range quotes {
			out[i] = listed{
				ID:         q.ID,
				Number:     q.Number,
				Customer:   q.Customer.Name,
				Status:     string(q.Status),
				Total:      q.TotalAmount,
				CreatedAt:  q.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				ValidUntil: q.ValidUntil.Format("2006-01-02T15:04:05Z07:00"),
			}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	s.renderTemplate(w, r, http.StatusOK, "quotes.html", quotesViewData{
		Query:  query,
		Status: string(filter.Status),
		Quotes: quotes,
	})
}

// createRequest accepts the quote form and its JSON equivalent. The items
// field is a JSON array in both.
func createRequest(values map[string][]string) (quote.CreateRequest, error) {
	get := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	payload := quote.CreatePayload{
		CustomerID:     quote.NumberFromString(get("customer_id")),
		CommissionRate: quote.NumberFromString(get("commission_rate")),
	}
	if raw := strings.TrimSpace(get("items")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload.Items); err != nil {
			return quote.CreateRequest{}, &quote.ValidationError{Field: "items", Message: "must be a JSON array of items", Err: err}
		}
	}
	return payload.Request()
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not create quote", err)
		return
	}
	req, err := createRequest(values)
	if err != nil {
		s.fail(w, r, "could not create quote", err)
		return
	}

	u, _ := userFrom(r.Context())
	q, err := s.quotes.Create(r.Context(), req, u.Email)
	if err != nil {
		s.fail(w, r, "could not create quote", err)
		return
	}

	redirect := fmt.Sprintf("/quotes/%d/preview", q.ID)
	if !wantsJSON(r) {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           q.ID,
		"quote_number": q.Number,
		"redirect_url": redirect,
	})
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	p, err := s.quotes.Preview(r.Context(), id)
	if err != nil {
		s.fail(w, r, "could not load quote", err)
		return
	}

	view := newQuotePreview(p)
	if wantsJSON(r) || r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, view)
		return
	}
	s.renderTemplate(w, r, http.StatusOK, "quote_preview.html", view)
}

// handleQuoteText returns a plain-text summary suitable for pasting into mail.
func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	p, err := s.quotes.Preview(r.Context(), id)
	if err != nil {
		s.fail(w, r, "could not load quote", err)
		return
	}
	view := newQuotePreview(p)

	var b strings.Builder
	fmt.Fprintf(&b, "Quote %s\n", view.Number)
	fmt.Fprintf(&b, "Customer: %s\n", view.Customer)
	fmt.Fprintf(&b, "Date: %s (valid until %s)\n\n", view.CreatedAt, view.ValidUntil)
	b.WriteString("Items:\n")
	for i, l := range view.Lines {
		fmt.Fprintf(&b, "%d. %s, %s, qty %d, %.2f cu.ft: %.2f\n", i+1, l.Description, l.Dimensions, l.Quantity, l.CubicFeet, l.Total)
	}
	fmt.Fprintf(&b, "\nTotal Cu.Ft: %.2f\n", view.Capacity.TotalCubicFeet)
	fmt.Fprintf(&b, "Total: %.2f\n", view.Totals.Total)
	if view.Capacity.Note != "" {
		fmt.Fprintf(&b, "Shipping: %s\n", view.Capacity.Note)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *server) handleQuoteItemsReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not update quote", err)
		return
	}
	reqs, err := quote.DecodeItems([]byte(values.Get("items")))
	if err != nil {
		s.fail(w, r, "could not update quote", err)
		return
	}
	if _, err := s.quotes.ReplaceItems(r.Context(), id, reqs); err != nil {
		s.fail(w, r, "could not update quote", err)
		return
	}
	p, err := s.quotes.Preview(r.Context(), id)
	if err != nil {
		s.fail(w, r, "could not load quote", err)
		return
	}
	writeJSON(w, http.StatusOK, newQuotePreview(p))
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not update quote status", err)
		return
	}
	status, err := quote.ParseStatus(values.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := s.quotes.Transition(r.Context(), id, status)
	if err != nil {
		s.fail(w, r, "could not update quote status", err)
		return
	}
	if !wantsJSON(r) {
		http.Redirect(w, r, fmt.Sprintf("/quotes/%d/preview", id), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": q.ID, "status": q.Status})
}

func (s *server) handleQuoteConvert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	u, _ := userFrom(r.Context())
	o, err := s.orders.ConvertQuote(r.Context(), id, u.Email)
	if err != nil {
		s.fail(w, r, "could not convert quote", err)
		return
	}
	if !wantsJSON(r) {
		http.Redirect(w, r, fmt.Sprintf("/orders/%d", o.ID), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(o))
}

func (s *server) handleQuoteDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	if err := s.quotes.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "could not delete quote", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
