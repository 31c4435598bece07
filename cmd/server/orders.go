package main

import (
	"net/http"
	"time"

	"github.com/Simplici0/stonequote/internal/order"
)

type orderItemView struct {
	ID                  int64   `json:"id"`
	ProductType         string  `json:"product_type"`
	Model               string  `json:"model"`
	Length              float64 `json:"length"`
	Breadth             float64 `json:"breadth"`
	Size                float64 `json:"size"`
	CubicFeet           float64 `json:"cubic_feet"`
	Quantity            int     `json:"quantity"`
	UnitPrice           float64 `json:"unit_price"`
	TotalPrice          float64 `json:"total_price"`
	ManufacturingStatus string  `json:"manufacturing_status"`
	EstimatedCompletion string  `json:"estimated_completion,omitempty"`
}

type statusEntryView struct {
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

type orderView struct {
	ID          int64             `json:"id"`
	Number      string            `json:"order_number"`
	QuoteID     int64             `json:"quote_id"`
	CustomerID  int64             `json:"customer_id"`
	Status      string            `json:"status"`
	TotalAmount float64           `json:"total_amount"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   string            `json:"created_at"`
	Items       []orderItemView   `json:"items"`
	History     []statusEntryView `json:"history"`
}

func newStatusEntryView(e order.StatusEntry) statusEntryView {
	return statusEntryView{
		Status:    string(e.Status),
		Notes:     e.Notes,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func newOrderView(o order.Order) orderView {
	v := orderView{
		ID:          o.ID,
		Number:      o.Number,
		QuoteID:     o.QuoteID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		Items:       make([]orderItemView, len(o.Items)),
		History:     make([]statusEntryView, len(o.History)),
	}
	for i, it := range o.Items {
		iv := orderItemView{
			ID:                  it.ID,
			ProductType:         string(it.ProductType),
			Model:               it.ModelName,
			Length:              it.Length,
			Breadth:             it.Breadth,
			Size:                it.Size,
			CubicFeet:           it.CubicFeet,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			TotalPrice:          it.TotalPrice,
			ManufacturingStatus: string(it.ManufacturingStatus),
		}
		if !it.EstimatedCompletion.IsZero() {
			iv.EstimatedCompletion = it.EstimatedCompletion.Format(time.RFC3339)
		}
		v.Items[i] = iv
	}
	for i, e := range o.History {
		v.History[i] = newStatusEntryView(e)
	}
	return v
}

func (s *server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := s.orders.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "could not load order", err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}

func (s *server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not update order status", err)
		return
	}
	status, err := order.ParseStatus(values.Get("status"))
	if err != nil {
		s.fail(w, r, "could not update order status", err)
		return
	}

	u, _ := userFrom(r.Context())
	entry, err := s.orders.AppendStatus(r.Context(), id, status, values.Get("notes"), u.Email)
	if err != nil {
		s.fail(w, r, "could not update order status", err)
		return
	}
	writeJSON(w, http.StatusCreated, newStatusEntryView(entry))
}

func (s *server) handleOrderItemStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order item id")
		return
	}
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not update item status", err)
		return
	}
	status, err := order.ParseManufacturingStatus(values.Get("status"))
	if err != nil {
		s.fail(w, r, "could not update item status", err)
		return
	}
	if err := s.orders.UpdateItemStatus(r.Context(), id, status); err != nil {
		s.fail(w, r, "could not update item status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "manufacturing_status": status})
}
