package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/stonequote/internal/catalog"
	"github.com/Simplici0/stonequote/internal/document"
	"github.com/Simplici0/stonequote/internal/order"
	"github.com/Simplici0/stonequote/internal/pricing"
	"github.com/Simplici0/stonequote/internal/quote"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// wantsJSON reports whether the caller speaks JSON rather than HTML forms.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func (s *server) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	s.logger.Error(message,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFrom(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, message)
}

// fail maps domain errors to HTTP responses. Anything unrecognized is logged
// and reported with the generic message.
func (s *server) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	var ve *quote.ValidationError
	var fe *document.FieldError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &fe):
		writeError(w, http.StatusBadRequest, fe.Error())
	case errors.Is(err, quote.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrItemNotFound),
		errors.Is(err, order.ErrQuoteNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, quote.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quote.ErrFrozen),
		errors.Is(err, quote.ErrInvalidTransition),
		errors.Is(err, quote.ErrConverted),
		errors.Is(err, quote.ErrStale),
		errors.Is(err, quote.ErrUseConversion),
		errors.Is(err, order.ErrNotConvertible),
		errors.Is(err, order.ErrAlreadyConverted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, document.ErrInvalidField),
		errors.Is(err, document.ErrMissingField),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, catalog.ErrInvalidPricing),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, pricing.ErrInvalidDimension),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, r, message, err)
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// readFields reads a flat JSON object or a form body into string values.
// Non-string JSON values keep their raw JSON text, so arrays such as items
// decode the same way from either encoding.
func readFields(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, &quote.ValidationError{Message: "request body must be a JSON object", Err: err}
		}
		values := url.Values{}
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				values.Set(k, s)
				continue
			}
			if t := strings.TrimSpace(string(v)); t != "null" {
				values.Set(k, t)
			}
		}
		return values, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, &quote.ValidationError{Message: "invalid form", Err: err}
	}
	return r.Form, nil
}
