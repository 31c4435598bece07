package main

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/stonequote/internal/document"
)

// writePDF renders into memory first so a failed render never sends a
// partial document.
func (s *server) writePDF(w http.ResponseWriter, r *http.Request, filename, disposition string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.internalError(w, r, "could not render pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition+`; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write pdf response", zap.Error(err), zap.String("file", filename))
	}
}

// handleQuotePDF renders a stored quote.
func (s *server) handleQuotePDF(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing field: id")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid field: id")
		return
	}

	q, err := s.quotes.Store().Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "could not load quote", err)
		return
	}
	doc, err := document.BuildQuote(document.FromQuote(q))
	if err != nil {
		s.fail(w, r, "could not build quote document", err)
		return
	}
	s.writePDF(w, r, document.QuoteFilename(doc.Number), "inline", func(out io.Writer) error {
		return document.RenderQuote(out, doc, s.company)
	})
}

// handleQuotePDFPreview renders an unsaved quote posted as quote_data.
func (s *server) handleQuotePDFPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw []byte
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		raw = body
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		raw = []byte(r.PostFormValue("quote_data"))
	}

	in, err := document.ParseQuoteData(raw)
	if err != nil {
		s.fail(w, r, "could not read quote data", err)
		return
	}
	if in.CustomerID != 0 && strings.TrimSpace(in.Customer.Name) == "" {
		c, err := s.quotes.Store().Customer(r.Context(), in.CustomerID)
		if err != nil {
			s.fail(w, r, "could not load customer", err)
			return
		}
		in.Customer = document.Customer{
			Name:       c.Name,
			Company:    c.Company,
			Email:      c.Email,
			Phone:      c.Phone,
			Address:    c.Address,
			City:       c.City,
			State:      c.State,
			PostalCode: c.PostalCode,
		}
	}
	in.Date = s.now()

	doc, err := document.BuildQuote(in)
	if err != nil {
		s.fail(w, r, "could not build quote document", err)
		return
	}
	s.writePDF(w, r, document.QuoteFilename(doc.Number), "inline", func(out io.Writer) error {
		return document.RenderQuote(out, doc, s.company)
	})
}

// handleDraftPDF renders an order draft as a downloadable attachment.
func (s *server) handleDraftPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := document.ParseDraft(raw)
	if err != nil {
		s.fail(w, r, "could not read order draft", err)
		return
	}
	built, err := document.BuildDraft(d)
	if err != nil {
		s.fail(w, r, "could not build order draft", err)
		return
	}

	at := s.now()
	s.writePDF(w, r, document.DraftFilename(d.Customer.Name, at), "attachment", func(out io.Writer) error {
		return document.RenderDraft(out, built, s.company, at)
	})
}
