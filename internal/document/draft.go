package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Simplici0/stonequote/internal/pricing"
)

var (
	ErrUnknownSideOption = errors.New("unknown side option")
	ErrChargeNotAllowed  = errors.New("side option does not take a charge")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
)

// SideOptionKind is a finishing option that can be requested on a product side.
type SideOptionKind string

const (
	SideShapeDrawing            SideOptionKind = "shape_drawing"
	SideShapeDealer             SideOptionKind = "shape_dealer"
	SideCompanyDrawing          SideOptionKind = "company_drawing"
	SideSandblast               SideOptionKind = "sandblast"
	SideCompanyDrafting         SideOptionKind = "company_drafting"
	SideCustomerDraftingStencil SideOptionKind = "customer_drafting_stencil"
	SideWithOrder               SideOptionKind = "with_order"
	SideBlank                   SideOptionKind = "blank"
	SideEtching                 SideOptionKind = "etching"
	SideSBCarving               SideOptionKind = "sb_carving"
	SideLettering               SideOptionKind = "lettering"
	SideFlat                    SideOptionKind = "flat"
	SideSharped                 SideOptionKind = "sharped"
	SideRose                    SideOptionKind = "rose"
	SideDedo                    SideOptionKind = "dedo"
	SideDomestic                SideOptionKind = "domestic"
	SideDigitization            SideOptionKind = "digitization"
)

var sideOptionLabels = map[SideOptionKind]string{
	SideShapeDrawing:            "Shape Drawing",
	SideShapeDealer:             "Shape Dealer",
	SideCompanyDrawing:          "Company Drawing",
	SideSandblast:               "Sandblast",
	SideCompanyDrafting:         "Company Drafting",
	SideCustomerDraftingStencil: "Customer Drafting Stencil",
	SideWithOrder:               "With Order",
	SideBlank:                   "Blank",
	SideEtching:                 "Etching",
	SideSBCarving:               "SB Carving",
	SideLettering:               "Lettering",
	SideFlat:                    "Flat",
	SideSharped:                 "Sharped",
	SideRose:                    "Rose",
	SideDedo:                    "Dedo",
	SideDomestic:                "Domestic",
	SideDigitization:            "Digitization",
}

// Chargeable reports whether the option carries an extra charge.
func (k SideOptionKind) Chargeable() bool {
	switch k {
	case SideEtching, SideSBCarving, SideDedo, SideDigitization:
		return true
	}
	return false
}

func (k SideOptionKind) Label() string { return sideOptionLabels[k] }

func (k *SideOptionKind) UnmarshalText(b []byte) error {
	v := SideOptionKind(strings.ToLower(strings.TrimSpace(string(b))))
	if _, ok := sideOptionLabels[v]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSideOption, string(b))
	}
	*k = v
	return nil
}

type SideOption struct {
	Kind   SideOptionKind `json:"kind"`
	Detail string         `json:"detail"`
	Charge float64        `json:"charge"`
}

type Side struct {
	Notes   string       `json:"notes"`
	Options []SideOption `json:"options"`
}

// Charges sums the chargeable options of one side.
func (s Side) Charges() float64 {
	values := make([]float64, 0, len(s.Options))
	for _, o := range s.Options {
		if o.Kind.Chargeable() {
			values = append(values, o.Charge)
		}
	}
	return pricing.Sum(values...)
}

type Manufacturing struct {
	Details   string `json:"details"`
	InHouse   bool   `json:"in_house"`
	Outsource bool   `json:"outsource"`
	Inventory bool   `json:"inventory"`
}

// Sources lists the checked manufacturing flags.
func (m Manufacturing) Sources() []string {
	var out []string
	if m.InHouse {
		out = append(out, "In-house")
	}
	if m.Outsource {
		out = append(out, "Outsource")
	}
	if m.Inventory {
		out = append(out, "Inventory")
	}
	return out
}

type DraftProduct struct {
	Type          string        `json:"type"`
	OtherName     string        `json:"other_name"`
	Manufacturing Manufacturing `json:"manufacturing"`
	Description   string        `json:"description"`
	GraniteColor  string        `json:"granite_color"`
	Quantity      int           `json:"quantity"`
	Price         float64       `json:"price"`
	Sides         []Side        `json:"sides"`
}

// TypeLabel renders "Other: name" for custom products.
func (p DraftProduct) TypeLabel() string {
	t := strings.TrimSpace(p.Type)
	if strings.EqualFold(t, "other") {
		if name := strings.TrimSpace(p.OtherName); name != "" {
			return "Other: " + name
		}
		return "Other"
	}
	if pt, err := pricing.ParseProductType(t); err == nil {
		return pt.Label()
	}
	return t
}

func (p DraftProduct) empty() bool {
	return strings.TrimSpace(p.Type) == "" && strings.TrimSpace(p.Description) == "" &&
		p.Quantity == 0 && p.Price == 0 && len(p.Sides) == 0
}

// SideCharges sums the charges over every side.
func (p DraftProduct) SideCharges() float64 {
	values := make([]float64, len(p.Sides))
	for i, s := range p.Sides {
		values[i] = s.Charges()
	}
	return pricing.Sum(values...)
}

type DraftCustomer struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Draft is an order draft as posted by the order quote form.
type Draft struct {
	Customer            DraftCustomer  `json:"customer"`
	SalesPerson         string         `json:"sales_person"`
	ShipTo              string         `json:"ship_to"`
	MarkCrate           bool           `json:"mark_crate"`
	MarkCrateDetails    string         `json:"mark_crate_details"`
	SealCertificate     bool           `json:"seal_certificate"`
	Trucker             string         `json:"trucker"`
	PaymentTerms        string         `json:"payment_terms"`
	Products            []DraftProduct `json:"products"`
	SpecialInstructions string         `json:"special_instructions"`
	Notes               string         `json:"notes"`
	TaxRate             float64        `json:"tax_rate"`
}

// DraftRow is a priced product row.
type DraftRow struct {
	Product     DraftProduct
	ProductCost float64
	SideCharges float64
	Total       float64
}

type DraftTotals struct {
	Subtotal    float64
	SideCharges float64
	TaxRate     float64
	Tax         float64
	GrandTotal  float64
}

// BuiltDraft is a validated draft with every amount computed.
type BuiltDraft struct {
	Draft
	Rows   []DraftRow
	Totals DraftTotals
}

// ParseDraft decodes and validates an order draft payload.
func ParseDraft(raw []byte) (Draft, error) {
	var d Draft
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Draft{}, missing("draft")
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("%w: draft: %v", ErrInvalidField, err)
	}
	if strings.TrimSpace(d.Customer.Name) == "" {
		return Draft{}, missing("customer.name")
	}
	return d, nil
}

// BuildDraft prices every non-empty product row. Side charges are counted in
// the row totals and once in the grand total.
func BuildDraft(d Draft) (BuiltDraft, error) {
	if d.TaxRate < 0 || d.TaxRate > 100 || math.IsNaN(d.TaxRate) {
		return BuiltDraft{}, badField("tax_rate")
	}

	out := BuiltDraft{Draft: d}
	var costs, charges []float64
	for i, p := range d.Products {
		if p.empty() {
			continue
		}
		if p.Quantity < 1 || p.Quantity > pricing.MaxQuantity {
			return BuiltDraft{}, badField(fmt.Sprintf("products[%d].quantity", i))
		}
		if !pricing.ValidAmount(p.Price) {
			return BuiltDraft{}, badField(fmt.Sprintf("products[%d].price", i))
		}
		for j, side := range p.Sides {
			for k, o := range side.Options {
				field := fmt.Sprintf("products[%d].sides[%d].options[%d]", i, j, k)
				if o.Charge < 0 || math.IsNaN(o.Charge) {
					return BuiltDraft{}, &FieldError{Field: field, Err: ErrNegativeAmount}
				}
				if !pricing.ValidAmount(o.Charge) {
					return BuiltDraft{}, badField(field)
				}
				if o.Charge != 0 && !o.Kind.Chargeable() {
					return BuiltDraft{}, &FieldError{Field: field, Err: ErrChargeNotAllowed}
				}
			}
		}

		cost := pricing.LineTotal(p.Price, p.Quantity)
		if !pricing.ValidAmount(cost) {
			return BuiltDraft{}, badField(fmt.Sprintf("products[%d].price", i))
		}
		side := p.SideCharges()
		out.Rows = append(out.Rows, DraftRow{
			Product:     p,
			ProductCost: cost,
			SideCharges: side,
			Total:       pricing.Sum(cost, side),
		})
		costs = append(costs, cost)
		charges = append(charges, side)
	}

	subtotal := pricing.Sum(costs...)
	sides := pricing.Sum(charges...)
	if !pricing.ValidAmount(subtotal) || !pricing.ValidAmount(sides) {
		return BuiltDraft{}, badField("products")
	}
	tax := pricing.Percent(pricing.Sum(subtotal, sides), d.TaxRate)
	out.Totals = DraftTotals{
		Subtotal:    subtotal,
		SideCharges: sides,
		TaxRate:     d.TaxRate,
		Tax:         tax,
		GrandTotal:  pricing.Sum(subtotal, sides, tax),
	}
	return out, nil
}

// DraftFilename is Order_Quote_Draft_{customer}_{YYYYMMDD_HHMMSS}.pdf.
func DraftFilename(customer string, at time.Time) string {
	name := sanitizeFilename(customer)
	if name == "" {
		name = "Customer"
	}
	return fmt.Sprintf("Order_Quote_Draft_%s_%s.pdf", name, at.Format("20060102_150405"))
}

var draftColumns = []column{
	{"Product", 35, "L"},
	{"Description", 55, "L"},
	{"Color", 25, "L"},
	{"Qty", 15, "C"},
	{"Price", 25, "R"},
	{"Total", 25, "R"},
}

func newDraftPDF(d BuiltDraft, company Company, at time.Time) *sheet {
	s := newSheet(company, "Order Quote Draft")
	pdf := s.pdf

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "ORDER QUOTE DRAFT", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Date: "+at.Format("2006-01-02"), "", 1, "L", false, 0, "")

	s.sectionBar("Customer & Shipping")
	c := d.Customer
	s.labelValue("Customer:", c.Name)
	s.labelValue("Company:", c.Company)
	s.labelValue("Email:", c.Email)
	s.labelValue("Phone:", c.Phone)
	s.labelValue("Address:", c.Address)
	s.labelValue("City/State/Zip:", strings.Join(nonEmpty(c.City, c.State, c.Zip), ", "))
	s.labelValue("Sales Person:", d.SalesPerson)
	s.labelValue("Ship To:", d.ShipTo)
	if d.MarkCrate {
		s.labelValue("Mark Crate:", strings.Join(nonEmpty("Yes", d.MarkCrateDetails), " - "))
	}
	if d.SealCertificate {
		s.labelValue("Seal & Certificate:", "Yes")
	}
	s.labelValue("Trucker:", d.Trucker)
	s.labelValue("Payment Terms:", d.PaymentTerms)

	s.sectionBar("Products")
	s.openTable(draftColumns)
	for _, r := range d.Rows {
		p := r.Product
		s.row([]string{
			p.TypeLabel(),
			productDetails(p),
			p.GraniteColor,
			fmt.Sprintf("%d", p.Quantity),
			money(p.Price),
			money(r.Total),
		})
	}
	s.closeTable()
	s.totalRow(draftColumns, "Subtotal", money(d.Totals.Subtotal))
	if d.Totals.SideCharges > 0 {
		s.totalRow(draftColumns, "Side Charges (included in totals)", money(d.Totals.SideCharges))
	}
	s.totalRow(draftColumns, fmt.Sprintf("Tax (%s%%)", trimFloat(d.Totals.TaxRate)), money(d.Totals.Tax))
	s.totalRow(draftColumns, "Grand Total", money(d.Totals.GrandTotal))

	if strings.TrimSpace(d.SpecialInstructions) != "" {
		s.sectionBar("Special Instructions")
		s.paragraph(d.SpecialInstructions)
	}
	if strings.TrimSpace(d.Notes) != "" {
		s.sectionBar("Notes")
		s.paragraph(d.Notes)
	}
	return s
}

func productDetails(p DraftProduct) string {
	var lines []string
	if desc := strings.TrimSpace(p.Description); desc != "" {
		lines = append(lines, desc)
	}
	if src := p.Manufacturing.Sources(); len(src) > 0 {
		lines = append(lines, "Source: "+strings.Join(src, ", "))
	}
	if det := strings.TrimSpace(p.Manufacturing.Details); det != "" {
		lines = append(lines, "Mfg: "+det)
	}
	for i, side := range p.Sides {
		var opts []string
		for _, o := range side.Options {
			label := o.Kind.Label()
			if o.Detail != "" {
				label += " (" + o.Detail + ")"
			}
			if o.Kind.Chargeable() && o.Charge > 0 {
				label += " " + money(o.Charge)
			}
			opts = append(opts, label)
		}
		line := fmt.Sprintf("Side %d: %s", i+1, strings.Join(opts, ", "))
		if notes := strings.TrimSpace(side.Notes); notes != "" {
			line += " - " + notes
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// RenderDraft writes a built draft as a PDF dated at.
func RenderDraft(w io.Writer, d BuiltDraft, company Company, at time.Time) error {
	return newDraftPDF(d, company, at).output(w)
}
