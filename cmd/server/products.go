package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/stonequote/internal/catalog"
	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

type productView struct {
	ID               int64   `json:"id"`
	Type             string  `json:"type"`
	Model            string  `json:"model"`
	Size             float64 `json:"size"`
	LengthInches     float64 `json:"length_inches"`
	BreadthInches    float64 `json:"breadth_inches"`
	SupplierPrice    float64 `json:"supplier_price"`
	MarkupPercentage float64 `json:"markup_percentage"`
	BasePrice        float64 `json:"base_price"`
}

func newProductView(p catalog.Product) productView {
	return productView{
		ID:               p.ID,
		Type:             string(p.Type),
		Model:            p.Model,
		Size:             p.Size,
		LengthInches:     p.LengthInches,
		BreadthInches:    p.BreadthInches,
		SupplierPrice:    p.SupplierPrice,
		MarkupPercentage: p.MarkupPercentage,
		BasePrice:        p.BasePrice,
	}
}

type namedRate struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// catalogType parses the {type} URL parameter, accepting only catalogued types.
func catalogType(r *http.Request) (pricing.ProductType, error) {
	t, err := pricing.ParseProductType(chi.URLParam(r, "type"))
	if err != nil {
		return "", invalidField("type", err)
	}
	if !t.Catalogued() {
		return "", invalidField("type", catalog.ErrUnknownType)
	}
	return t, nil
}

func invalidField(field string, err error) error {
	return &quote.ValidationError{Field: field, Message: err.Error(), Err: err}
}

// number parses a required numeric form or JSON field.
func number(values map[string][]string, field string) (float64, error) {
	var raw string
	if v := values[field]; len(v) > 0 {
		raw = v[0]
	}
	n := quote.NumberFromString(raw)
	if !n.Set {
		return 0, &quote.ValidationError{Field: field, Message: "is required"}
	}
	if n.Invalid {
		return 0, &quote.ValidationError{Field: field, Message: "must be a number"}
	}
	return n.Value, nil
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	t, err := catalogType(r)
	if err != nil {
		s.fail(w, r, "could not load products", err)
		return
	}
	products, err := s.catalog.Products(r.Context(), t)
	if err != nil {
		s.fail(w, r, "could not load products", err)
		return
	}
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = newProductView(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleColorsList(w http.ResponseWriter, r *http.Request) {
	colors, err := s.catalog.Colors(r.Context())
	if err != nil {
		s.internalError(w, r, "could not load colors", err)
		return
	}
	out := make([]namedRate, len(colors))
	for i, c := range colors {
		out[i] = namedRate{ID: c.ID, Name: c.Name, Percentage: c.PriceIncreasePercentage}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleSpecialMonumentsList(w http.ResponseWriter, r *http.Request) {
	monuments, err := s.catalog.SpecialMonuments(r.Context())
	if err != nil {
		s.internalError(w, r, "could not load special monuments", err)
		return
	}
	out := make([]namedRate, len(monuments))
	for i, m := range monuments {
		out[i] = namedRate{ID: m.ID, Name: m.Name, Percentage: m.Percentage}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleProductPricing(w http.ResponseWriter, r *http.Request) {
	t, err := catalogType(r)
	if err != nil {
		s.fail(w, r, "could not update product", err)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not update product", err)
		return
	}
	supplier, err := number(values, "supplier_price")
	if err != nil {
		s.fail(w, r, "could not update product", err)
		return
	}
	markup, err := number(values, "markup_percentage")
	if err != nil {
		s.fail(w, r, "could not update product", err)
		return
	}

	p, err := s.catalog.UpdateProductPricing(r.Context(), t, id, supplier, markup)
	if err != nil {
		s.fail(w, r, "could not update product", err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

// handleGlobalMarkup applies one markup to every catalogued product, or to a
// single category when type is given.
func (s *server) handleGlobalMarkup(w http.ResponseWriter, r *http.Request) {
	values, err := readFields(w, r)
	if err != nil {
		s.fail(w, r, "could not apply markup", err)
		return
	}
	markup, err := number(values, "global_markup")
	if err != nil {
		s.fail(w, r, "could not apply markup", err)
		return
	}

	var types []pricing.ProductType
	if raw := strings.TrimSpace(values.Get("type")); raw != "" && raw != "all" {
		t, err := pricing.ParseProductType(raw)
		if err != nil {
			s.fail(w, r, "could not apply markup", invalidField("type", err))
			return
		}
		types = append(types, t)
	}

	updated, err := s.catalog.ApplyGlobalMarkup(r.Context(), markup, types...)
	if err != nil {
		s.fail(w, r, "could not apply markup", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated, "markup_percentage": markup})
}
