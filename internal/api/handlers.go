package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rulecheck/internal/compare"
	"rulecheck/internal/dataset"
	"rulecheck/internal/derive"
	"rulecheck/internal/ingest"
	"rulecheck/internal/report"
	"rulecheck/internal/rules"
	"rulecheck/internal/validate"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	ds, ok := s.readDataset(w, r)
	if !ok {
		return
	}
	rs, _, err := s.store.LoadOrInit(customer, ds.Names())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	derived, err := derive.Apply(ds, rs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	errs := validate.New(validate.Options{Workers: s.cfg.ValidateWorkers}).Run(derived, rs)
	respondJSON(w, http.StatusOK, report.Build(errs))
}

// handleCompare checks column presence and inferred types against the
// customer's rule set.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	ds, ok := s.readDataset(w, r)
	if !ok {
		return
	}
	rs, err := s.store.Load(customer)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	expected := compare.FromRules(rs)
	respondJSON(w, http.StatusOK, report.BuildComparison(compare.Schema(ds, expected), compare.Types(ds, expected)))
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	rs, err := s.store.Load(chi.URLParam(r, "customer"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rs)
}

func (s *Server) handlePutRules(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")
	rs, err := rules.Decode(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err == nil {
		err = rs.Check()
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Save(customer, rs); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rs)
}

// readDataset ingests the request body. On failure it writes the response
// and returns false.
func (s *Server) readDataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	q := r.URL.Query()
	format := ingest.CSV
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = ingest.ParseFormat(f); err != nil {
			s.respondError(w, r, &ingest.IngestionError{Reason: "format", Err: err})
			return nil, false
		}
	}
	opts := ingest.Options{Encoding: q.Get("encoding"), RecordTag: q.Get("record_tag")}
	if d := q.Get("delimiter"); d != "" {
		opts.Comma, _ = utf8.DecodeRuneInString(d)
	}
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	ds, err := ingest.Read(r.Context(), body, format, opts).Unwrap()
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return ds, true
}

// respondError maps err onto a status code, logs it with the request ID and
// writes an ErrorResponse.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	log.Printf("api: %s %s status=%d code=%s request_id=%s err=%v",
		r.Method, r.URL.Path, status, code, middleware.GetReqID(r.Context()), err)
	respondJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	var (
		ie *ingest.IngestionError
		de *derive.DerivationError
		mb *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.As(err, &ie):
		return http.StatusBadRequest, "ingestion"
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity, "derivation"
	case errors.Is(err, rules.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, rules.ErrConfig):
		return http.StatusBadRequest, "config"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
