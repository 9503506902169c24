package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/unitconv/internal/catalog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// History listing bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// DefaultMaxBatchItems caps a single batch when Options leaves it unset.
const DefaultMaxBatchItems = 1000

// defaultBatchWorkers bounds per-batch parallelism (each item may write history).
const defaultBatchWorkers = 8

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxBatchItems        int
	MaxConcurrentBatches int
	BatchWaitTime        time.Duration
	BatchWorkers         int
}

// Request is a single conversion request as a caller sends it.
type Request struct {
	Category string  `json:"category"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Value    float64 `json:"value"`
}

// Result is a served conversion.
type Result struct {
	ID        string       `json:"id"`
	Category  string       `json:"category"`
	Kind      catalog.Kind `json:"kind"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Value     float64      `json:"value"`
	Result    float64      `json:"result"`
	CreatedAt time.Time    `json:"createdAt"`
}

// BatchItem is the outcome of one request in a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int
	Result *Result
	Err    error
}

// BatchResult collects per-item outcomes in request order.
type BatchResult struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
}

// Service resolves categories from the catalog, runs the engine and records
// history. It holds no mutable conversion state and is safe for concurrent use.
type Service struct {
	catalog *catalog.Catalog
	history HistoryStore
	limiter *BatchLimiter

	maxBatchItems int
	batchWorkers  int

	now func() time.Time
}

// NewService creates a Service over a loaded catalog. history may be nil,
// in which case nothing is recorded.
func NewService(cat *catalog.Catalog, history HistoryStore, opts Options) (*Service, error) {
	if cat == nil {
		return nil, errors.New("new service: catalog is required")
	}
	if opts.MaxBatchItems <= 0 {
		opts.MaxBatchItems = DefaultMaxBatchItems
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = defaultBatchWorkers
	}

	return &Service{
		catalog:       cat,
		history:       history,
		limiter:       NewBatchLimiter(opts.MaxConcurrentBatches, opts.BatchWaitTime),
		maxBatchItems: opts.MaxBatchItems,
		batchWorkers:  opts.BatchWorkers,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Categories returns every category in catalog order.
func (s *Service) Categories() []catalog.Category {
	return s.catalog.Categories()
}

// Category returns a category by name.
func (s *Service) Category(name string) (catalog.Category, error) {
	cat, ok := s.catalog.Get(name)
	if !ok {
		return catalog.Category{}, &ConversionError{Kind: KindUnknownCategory, Category: name}
	}
	return cat, nil
}

// Convert serves one request. Failures are *ConversionError values; the
// attempt is recorded in history either way.
func (s *Service) Convert(ctx context.Context, req Request) (Result, error) {
	res, err := s.convert(req)
	s.record(ctx, req, res, err)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *Service) convert(req Request) (Result, error) {
	cat, err := s.Category(req.Category)
	if err != nil {
		return Result{}, err
	}

	// The engine passes the value through untouched on identity conversions,
	// so NaN and Inf have to be stopped here.
	if !isFinite(req.Value) {
		e := invalidValue(req.Value)
		e.Category = cat.Name
		return Result{}, e
	}

	out, err := Convert(cat, req.Value, req.From, req.To)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ID:        uuid.New().String(),
		Category:  cat.Name,
		Kind:      cat.Kind,
		From:      req.From,
		To:        req.To,
		Value:     req.Value,
		Result:    out,
		CreatedAt: s.now(),
	}, nil
}

// record writes a history entry. A failing store never fails the conversion.
func (s *Service) record(ctx context.Context, req Request, res Result, convErr error) {
	if s.history == nil {
		return
	}

	client := ClientFromContext(ctx)
	entry := HistoryEntry{
		ID:        res.ID,
		Category:  req.Category,
		From:      req.From,
		To:        req.To,
		Value:     req.Value,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		CreatedAt: res.CreatedAt,
	}
	// JSON has no NaN or Inf; the error code records why the value was refused.
	if !isFinite(entry.Value) {
		entry.Value = 0
	}
	if convErr != nil {
		entry.ID = uuid.New().String()
		entry.ErrorCode = MapError(convErr).Code
		entry.CreatedAt = s.now()
	} else {
		v := res.Result
		entry.Result = &v
	}

	if err := s.history.Record(ctx, entry); err != nil {
		slog.Warn("history record failed",
			"category", req.Category,
			"error", err,
		)
	}
}

// ConvertBatch converts every request independently. Item failures are
// reported per item; the returned error is only set when the batch as a
// whole is rejected (empty, too large, no slot, or ctx done).
func (s *Service) ConvertBatch(ctx context.Context, reqs []Request) (BatchResult, error) {
	if len(reqs) == 0 {
		return BatchResult{}, errors.New("invalid request: batch is empty")
	}
	if len(reqs) > s.maxBatchItems {
		return BatchResult{}, fmt.Errorf("batch too large: %d items exceeds limit of %d", len(reqs), s.maxBatchItems)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return BatchResult{}, err
	}
	defer s.limiter.Release()

	items := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Convert(gctx, req)
			if err != nil {
				items[i] = BatchItem{Index: i, Err: err}
				return nil
			}
			items[i] = BatchItem{Index: i, Result: &res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{Items: items}
	for _, it := range items {
		if it.Err != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	slog.Debug("batch converted",
		"items", len(items),
		"succeeded", out.Succeeded,
		"failed", out.Failed,
	)
	return out, nil
}

// History returns recent conversions, newest first. limit is clamped to
// [1, MaxHistoryLimit]; zero means DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.history.Recent(ctx, limit)
}

// BatchStatus returns the batch limiter state for monitoring.
func (s *Service) BatchStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForBatches blocks until in-flight batches finish or ctx is done.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
