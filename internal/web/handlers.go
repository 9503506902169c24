package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/unitconv/internal/core"
	"github.com/JonMunkholm/unitconv/internal/logging"
	"github.com/JonMunkholm/unitconv/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// convertRequest is the JSON body of POST /api/convert. Value is a pointer so
// a missing value is distinguishable from zero.
type convertRequest struct {
	Category string   `json:"category"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Value    *float64 `json:"value"`
}

func (c convertRequest) toRequest() (core.Request, error) {
	var missing []string
	if strings.TrimSpace(c.Category) == "" {
		missing = append(missing, "category")
	}
	if c.From == "" {
		missing = append(missing, "from")
	}
	if c.To == "" {
		missing = append(missing, "to")
	}
	if c.Value == nil {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return core.Request{}, fmt.Errorf("invalid request: missing %s", strings.Join(missing, ", "))
	}
	return core.Request{
		Category: strings.TrimSpace(c.Category),
		From:     c.From,
		To:       c.To,
		Value:    *c.Value,
	}, nil
}

// convertResponse is a served conversion plus its display form.
type convertResponse struct {
	core.Result
	Formatted string `json:"formatted"`
}

type batchRequest struct {
	Items []convertRequest `json:"items"`
}

type batchItemResponse struct {
	Index  int              `json:"index"`
	Result *convertResponse `json:"result,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

type batchResponse struct {
	Items     []batchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

type historyResponse struct {
	Entries []core.HistoryEntry `json:"entries"`
	Count   int                 `json:"count"`
}

type healthResponse struct {
	Status     string             `json:"status"`
	Categories int                `json:"categories"`
	Batches    core.LimiterStatus `json:"batches"`
	Time       time.Time          `json:"time"`
}

// handleIndex renders the converter page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	params := templates.IndexParams{
		Categories: s.service.Categories(),
		Selected:   r.URL.Query().Get("category"),
		Precision:  s.precision,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(params).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleConvertForm serves the HTMX form post and answers with a fragment.
func (s *Server) handleConvertForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		respondError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}

	raw := strings.TrimSpace(r.PostForm.Get("value"))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(w, r, fmt.Errorf("invalid request: value %q is not a number", raw), http.StatusBadRequest)
		return
	}

	req := core.Request{
		Category: strings.TrimSpace(r.PostForm.Get("category")),
		From:     strings.TrimSpace(r.PostForm.Get("from")),
		To:       strings.TrimSpace(r.PostForm.Get("to")),
		Value:    value,
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Convert(ctx, req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	view := templates.ConversionView{
		Category:  res.Category,
		From:      res.From,
		To:        res.To,
		Value:     res.Value,
		Result:    res.Result,
		Precision: s.formPrecision(r),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ConversionResult(view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render result", "error", err)
	}
}

// formPrecision honours a precision form field within 0..15, else the
// configured default.
func (s *Server) formPrecision(r *http.Request) int {
	if p, err := strconv.Atoi(r.PostForm.Get("precision")); err == nil && p >= 0 && p <= 15 {
		return p
	}
	return s.precision
}

// handleListCategories returns every category in catalog order.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Categories())
}

// handleGetCategory returns one category with its units.
func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := s.service.Category(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, cat)
}

// handleConvert serves a single JSON conversion.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var body convertRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	req, err := body.toRequest()
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	res, err := s.service.Convert(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, s.toResponse(res))
}

// handleConvertBatch converts many requests. Item failures do not fail the
// batch; they are reported per item.
func (s *Server) handleConvertBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if len(body.Items) == 0 {
		respondError(w, r, errors.New("invalid request: batch is empty"), http.StatusBadRequest)
		return
	}

	// Items that fail request validation never reach the service.
	resp := batchResponse{Items: make([]batchItemResponse, len(body.Items))}
	reqs := make([]core.Request, 0, len(body.Items))
	positions := make([]int, 0, len(body.Items))
	for i, item := range body.Items {
		req, err := item.toRequest()
		if err != nil {
			e := errorResponse(err)
			resp.Items[i] = batchItemResponse{Index: i, Error: &e}
			resp.Failed++
			continue
		}
		reqs = append(reqs, req)
		positions = append(positions, i)
	}

	if len(reqs) > 0 {
		logger := logging.WithFields(r.Context(), "items", len(reqs))
		out, err := s.service.ConvertBatch(WithRequestMetadata(r.Context(), r), reqs)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		for j, item := range out.Items {
			i := positions[j]
			if item.Err != nil {
				e := errorResponse(item.Err)
				resp.Items[i] = batchItemResponse{Index: i, Error: &e}
				continue
			}
			cr := s.toResponse(*item.Result)
			resp.Items[i] = batchItemResponse{Index: i, Result: &cr}
		}
		resp.Succeeded += out.Succeeded
		resp.Failed += out.Failed
		logger.Info("batch converted", "succeeded", out.Succeeded, "failed", out.Failed)
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// handleHistory returns recent conversions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	entries, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, fmt.Errorf("history: %w", err), http.StatusServiceUnavailable)
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, r, http.StatusOK, historyResponse{Entries: entries, Count: len(entries)})
}

// handleHealth reports liveness plus batch limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:     "ok",
		Categories: len(s.service.Categories()),
		Batches:    s.service.BatchStatus(),
		Time:       time.Now().UTC(),
	})
}

func (s *Server) toResponse(res core.Result) convertResponse {
	return convertResponse{
		Result:    res,
		Formatted: res.Format(s.precision),
	}
}

// decodeJSON reads a size-limited JSON body, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request: trailing data after JSON body")
	}
	return nil
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
