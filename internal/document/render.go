package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/Simplici0/stonequote/internal/pricing"
)

const (
	pageMargin   = 15.0
	headerHeight = 30.0
	footerSpace  = 40.0
	lineHeight   = 5.0
)

var (
	brandColor  = [3]int{34, 40, 49}
	headerGray  = [3]int{230, 230, 230}
	warningText = [3]int{180, 90, 0}
)

type column struct {
	title string
	width float64
	align string
}

var quoteColumns = []column{
	{"Description", 45, "L"},
	{"Dimensions", 45, "L"},
	{"Cubic Ft", 25, "R"},
	{"Qty", 15, "C"},
	{"Unit Price", 25, "R"},
	{"Total", 25, "R"},
}

// sheet wraps gofpdf with the shared letterhead and a table header that is
// repeated after every page break while a table is open.
type sheet struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	company Company
	table   []column
}

func newSheet(company Company, title string) *sheet {
	pdf := gofpdf.New("P", "mm", "A4", "")
	s := &sheet{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), company: company}

	pdf.SetTitle(title, true)
	pdf.SetCreator(company.Name, true)
	pdf.SetMargins(pageMargin, headerHeight+10, pageMargin)
	pdf.SetAutoPageBreak(true, footerSpace)
	pdf.AliasNbPages("")
	pdf.SetHeaderFunc(s.header)
	pdf.SetFooterFunc(s.footer)
	pdf.AddPage()
	return s
}

func (s *sheet) header() {
	pdf := s.pdf
	pageW, _ := pdf.GetPageSize()

	pdf.SetFillColor(brandColor[0], brandColor[1], brandColor[2])
	pdf.Rect(0, 0, pageW, headerHeight, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(pageMargin, 7)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 9, s.tr(s.company.Name), "", 1, "L", false, 0, "")
	pdf.SetX(pageMargin)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, s.tr(s.company.Tagline), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(headerHeight + 10)

	if s.table != nil {
		s.tableHeader()
	}
}

func (s *sheet) footer() {
	pdf := s.pdf
	pageW, _ := pdf.GetPageSize()

	pdf.SetY(-35)
	pdf.SetDrawColor(brandColor[0], brandColor[1], brandColor[2])
	pdf.Line(pageMargin, pdf.GetY(), pageW-pageMargin, pdf.GetY())
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 5, s.tr(s.company.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, s.tr(s.company.Tagline), "", 1, "C", false, 0, "")
	if contact := strings.Join(nonEmpty(phoneLabel(s.company.Phone), emailLabel(s.company.Email)), " | "); contact != "" {
		pdf.CellFormat(0, 4, s.tr(contact), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func phoneLabel(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	return "Phone: " + p
}

func emailLabel(e string) string {
	if strings.TrimSpace(e) == "" {
		return ""
	}
	return "Email: " + e
}

func (s *sheet) openTable(cols []column) {
	s.table = cols
	s.tableHeader()
}

func (s *sheet) closeTable() { s.table = nil }

func (s *sheet) tableHeader() {
	pdf := s.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(headerGray[0], headerGray[1], headerGray[2])
	for _, c := range s.table {
		pdf.CellFormat(c.width, 7, s.tr(c.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

// row prints one table row, wrapping text inside each cell. The row moves to
// a new page as a whole when it would cross the footer.
func (s *sheet) row(cells []string) {
	pdf := s.pdf
	pdf.SetFont("Helvetica", "", 9)

	lines := 1
	wrapped := make([][]string, len(cells))
	for i, text := range cells {
		for _, l := range pdf.SplitLines([]byte(s.tr(text)), s.table[i].width-2) {
			wrapped[i] = append(wrapped[i], string(l))
		}
		if len(wrapped[i]) > lines {
			lines = len(wrapped[i])
		}
	}
	h := float64(lines)*lineHeight + 2

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h > pageH-footerSpace {
		pdf.AddPage()
	}

	x, y := pdf.GetXY()
	for i, c := range s.table {
		pdf.Rect(x, y, c.width, h, "D")
		pdf.SetXY(x+1, y+1)
		pdf.MultiCell(c.width-2, lineHeight, strings.Join(wrapped[i], "\n"), "", c.align, false)
		x += c.width
	}
	pdf.SetXY(pageMargin, y+h)
}

func (s *sheet) ensureSpace(h float64) {
	_, pageH := s.pdf.GetPageSize()
	if s.pdf.GetY()+h > pageH-footerSpace {
		s.pdf.AddPage()
	}
}

func (s *sheet) sectionBar(title string) {
	pdf := s.pdf
	s.ensureSpace(20)
	pdf.Ln(4)
	pdf.SetFillColor(brandColor[0], brandColor[1], brandColor[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, s.tr(title), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(1)
}

func (s *sheet) labelValue(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	pdf := s.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(40, lineHeight, s.tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, lineHeight, s.tr(value), "", "L", false)
}

func (s *sheet) paragraph(text string) {
	s.pdf.SetFont("Helvetica", "", 9)
	s.pdf.MultiCell(0, lineHeight, s.tr(text), "", "L", false)
}

func (s *sheet) totalRow(cols []column, label, value string) {
	pdf := s.pdf
	s.ensureSpace(8)
	labelW := 0.0
	for _, c := range cols[:len(cols)-1] {
		labelW += c.width
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW, 7, s.tr(label), "1", 0, "R", false, 0, "")
	pdf.CellFormat(cols[len(cols)-1].width, 7, s.tr(value), "1", 1, "R", false, 0, "")
}

func (s *sheet) output(w io.Writer) error {
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func newQuotePDF(doc Quote, company Company) *sheet {
	s := newSheet(company, "Quote "+doc.Number)
	pdf := s.pdf

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "QUOTATION", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	number := doc.Number
	if number == "" {
		number = "Draft"
	}
	pdf.CellFormat(90, 6, s.tr("Quote Number: "+number), "", 0, "L", false, 0, "")
	date := ""
	if !doc.Date.IsZero() {
		date = doc.Date.Format("2006-01-02")
	}
	pdf.CellFormat(0, 6, s.tr("Date: "+date), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	if lines := doc.Customer.Lines(); len(lines) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Bill To:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, l := range lines {
			pdf.CellFormat(0, 5, s.tr(l), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	s.openTable(quoteColumns)
	for _, r := range doc.Rows {
		s.row([]string{
			r.Description,
			r.Dimensions,
			fmt.Sprintf("%.2f", r.CubicFeet),
			fmt.Sprintf("%d", r.Quantity),
			money(r.UnitPrice),
			money(r.Total),
		})
	}
	s.closeTable()
	s.totalRow(quoteColumns, "Total Cu.Ft", fmt.Sprintf("%.2f", doc.TotalCubicFeet))
	s.totalRow(quoteColumns, "Total", money(doc.GrandTotal()))

	if doc.Capacity.Note != "" {
		s.ensureSpace(15)
		pdf.Ln(3)
		if doc.Capacity.Status != pricing.CapacityEfficient {
			pdf.SetTextColor(warningText[0], warningText[1], warningText[2])
		}
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, lineHeight, s.tr("Shipping: "+doc.Capacity.Note), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	s.sectionBar("Terms and Conditions")
	for i, term := range doc.Terms {
		s.paragraph(fmt.Sprintf("%d. %s", i+1, term))
	}
	return s
}

// RenderQuote writes doc as a PDF.
func RenderQuote(w io.Writer, doc Quote, company Company) error {
	return newQuotePDF(doc, company).output(w)
}
