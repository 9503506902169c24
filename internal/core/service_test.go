package core

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/unitconv/internal/catalog"
)

const testCatalog = `{
  "Length": {"units": {"m": 1, "km": 1000, "cm": 0.01}},
  "Temperature": {"type": "temperature"},
  "Broken": {"units": {"A": 1, "B": 0}}
}`

func newTestService(t *testing.T, history HistoryStore, opts Options) *Service {
	t.Helper()
	cat, err := catalog.Parse("test.json", []byte(testCatalog))
	if err != nil {
		t.Fatalf("catalog.Parse() error = %v", err)
	}
	svc, err := NewService(cat, history, opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

type failingHistory struct{}

func (failingHistory) Record(context.Context, HistoryEntry) error {
	return errors.New("history store down")
}

func (failingHistory) Recent(context.Context, int) ([]HistoryEntry, error) {
	return nil, errors.New("history store down")
}

func (failingHistory) Purge(context.Context, time.Time) (int64, error) {
	return 0, errors.New("history store down")
}

func TestNewService_RequiresCatalog(t *testing.T) {
	if _, err := NewService(nil, nil, Options{}); err == nil {
		t.Fatal("NewService(nil) expected error")
	}
}

func TestService_Convert(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	res, err := svc.Convert(context.Background(), Request{Category: "Length", From: "km", To: "cm", Value: 2})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !approxEqual(res.Result, 200000, 1e-12) {
		t.Errorf("Result = %v, want 200000", res.Result)
	}
	if res.ID == "" {
		t.Error("Result.ID is empty")
	}
	if res.Kind != catalog.KindLinear {
		t.Errorf("Kind = %v, want linear", res.Kind)
	}
	if res.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}

	res, err = svc.Convert(context.Background(), Request{Category: "Temperature", From: "F", To: "C", Value: 98.6})
	if err != nil {
		t.Fatalf("Convert(Temperature) error = %v", err)
	}
	if res.Result < 36.99 || res.Result > 37.01 {
		t.Errorf("98.6F = %v C, want 37", res.Result)
	}
}

func TestService_ConvertErrors(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unknown category", Request{Category: "Money", From: "USD", To: "EUR", Value: 1}, ErrUnknownCategory},
		{"category name is case sensitive", Request{Category: "length", From: "m", To: "km", Value: 1}, ErrUnknownCategory},
		{"unknown unit", Request{Category: "Length", From: "xyz", To: "m", Value: 1}, ErrUnknownUnit},
		{"division by zero", Request{Category: "Broken", From: "A", To: "B", Value: 5}, ErrDivisionByZero},
		{"temperature unit", Request{Category: "Temperature", From: "C", To: "R", Value: 5}, ErrUnknownUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Convert(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_ConvertRecordsHistory(t *testing.T) {
	history := NewMemoryHistory(10)
	svc := newTestService(t, history, Options{})

	ctx := WithClient(context.Background(), Client{IP: "10.0.0.1", UserAgent: "test-agent"})

	res, err := svc.Convert(ctx, Request{Category: "Length", From: "m", To: "cm", Value: 1})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if _, err := svc.Convert(ctx, Request{Category: "Length", From: "m", To: "xyz", Value: 1}); err == nil {
		t.Fatal("Convert() expected error for unknown unit")
	}

	entries, err := svc.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("History() returned %d entries, want 2", len(entries))
	}

	failed, ok := entries[0], entries[1]
	if failed.ErrorCode != "CONV001" {
		t.Errorf("failed entry ErrorCode = %q, want CONV001", failed.ErrorCode)
	}
	if failed.Result != nil {
		t.Errorf("failed entry Result = %v, want nil", *failed.Result)
	}
	if ok.ID != res.ID {
		t.Errorf("entry ID = %q, want %q", ok.ID, res.ID)
	}
	if ok.Result == nil || !approxEqual(*ok.Result, 100, 1e-12) {
		t.Errorf("entry Result = %v, want 100", ok.Result)
	}
	if ok.IPAddress != "10.0.0.1" || ok.UserAgent != "test-agent" {
		t.Errorf("entry client = %q/%q, want 10.0.0.1/test-agent", ok.IPAddress, ok.UserAgent)
	}
}

func TestService_ConvertNonFiniteValue(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"NaN identity", Request{Category: "Length", From: "m", To: "m", Value: math.NaN()}},
		{"NaN", Request{Category: "Length", From: "m", To: "km", Value: math.NaN()}},
		{"+Inf identity", Request{Category: "Length", From: "km", To: "km", Value: math.Inf(1)}},
		{"-Inf", Request{Category: "Length", From: "km", To: "m", Value: math.Inf(-1)}},
		{"temperature NaN identity", Request{Category: "Temperature", From: "C", To: "C", Value: math.NaN()}},
		{"temperature +Inf", Request{Category: "Temperature", From: "C", To: "K", Value: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := NewMemoryHistory(10)
			svc := newTestService(t, history, Options{})

			_, err := svc.Convert(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("Convert() error = %v, want ErrInvalidValue", err)
			}

			entries, err := svc.History(context.Background(), 0)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("History() returned %d entries, want 1", len(entries))
			}
			if entries[0].ErrorCode != "CONV005" {
				t.Errorf("ErrorCode = %q, want CONV005", entries[0].ErrorCode)
			}
			if _, err := json.Marshal(entries); err != nil {
				t.Errorf("history entries are not JSON-encodable: %v", err)
			}
		})
	}
}

func TestService_HistoryFailureDoesNotFailConversion(t *testing.T) {
	svc := newTestService(t, failingHistory{}, Options{})

	if _, err := svc.Convert(context.Background(), Request{Category: "Length", From: "m", To: "km", Value: 1}); err != nil {
		t.Errorf("Convert() error = %v, want nil despite history failure", err)
	}
}

func TestService_HistoryWithoutStore(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	entries, err := svc.History(context.Background(), 10)
	if err != nil || entries != nil {
		t.Errorf("History() = %v, %v; want nil, nil", entries, err)
	}
}

func TestService_ConvertBatch(t *testing.T) {
	history := NewMemoryHistory(100)
	svc := newTestService(t, history, Options{BatchWorkers: 2})

	reqs := []Request{
		{Category: "Length", From: "km", To: "m", Value: 1},
		{Category: "Length", From: "m", To: "nope", Value: 1},
		{Category: "Temperature", From: "C", To: "K", Value: 0},
		{Category: "Money", From: "a", To: "b", Value: 1},
		{Category: "Broken", From: "A", To: "B", Value: 1},
	}

	out, err := svc.ConvertBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("ConvertBatch() error = %v", err)
	}
	if len(out.Items) != len(reqs) {
		t.Fatalf("Items = %d, want %d", len(out.Items), len(reqs))
	}
	if out.Succeeded != 2 || out.Failed != 3 {
		t.Errorf("Succeeded/Failed = %d/%d, want 2/3", out.Succeeded, out.Failed)
	}

	for i, it := range out.Items {
		if it.Index != i {
			t.Errorf("Items[%d].Index = %d", i, it.Index)
		}
	}
	if out.Items[0].Result == nil || out.Items[0].Result.Result != 1000 {
		t.Errorf("Items[0] = %+v, want result 1000", out.Items[0])
	}
	if !errors.Is(out.Items[1].Err, ErrUnknownUnit) {
		t.Errorf("Items[1].Err = %v, want unknown unit", out.Items[1].Err)
	}
	if out.Items[2].Result == nil || out.Items[2].Result.Result != 273.15 {
		t.Errorf("Items[2] = %+v, want result 273.15", out.Items[2])
	}
	if !errors.Is(out.Items[3].Err, ErrUnknownCategory) {
		t.Errorf("Items[3].Err = %v, want unknown category", out.Items[3].Err)
	}
	if !errors.Is(out.Items[4].Err, ErrDivisionByZero) {
		t.Errorf("Items[4].Err = %v, want division by zero", out.Items[4].Err)
	}

	if got := history.Len(); got != len(reqs) {
		t.Errorf("history has %d entries, want %d", got, len(reqs))
	}
}

func TestService_ConvertBatchRejected(t *testing.T) {
	svc := newTestService(t, nil, Options{MaxBatchItems: 2})

	if _, err := svc.ConvertBatch(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Errorf("empty batch error = %v, want invalid request", err)
	}

	reqs := make([]Request, 3)
	_, err := svc.ConvertBatch(context.Background(), reqs)
	if err == nil || MapError(err).Code != "REQ002" {
		t.Errorf("oversized batch error = %v, want REQ002", err)
	}
}

func TestService_ConvertBatchLimiterFull(t *testing.T) {
	svc := newTestService(t, nil, Options{MaxConcurrentBatches: 1, BatchWaitTime: 20 * time.Millisecond})

	if !svc.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed on idle limiter")
	}
	defer svc.limiter.Release()

	_, err := svc.ConvertBatch(context.Background(), []Request{{Category: "Length", From: "m", To: "m", Value: 1}})
	if !errors.Is(err, ErrTooManyBatches) {
		t.Errorf("ConvertBatch() error = %v, want ErrTooManyBatches", err)
	}
	if got := svc.BatchStatus().Active; got != 1 {
		t.Errorf("BatchStatus().Active = %d, want 1", got)
	}
}

func TestService_ConvertBatchCancelled(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ConvertBatch(ctx, []Request{{Category: "Length", From: "m", To: "km", Value: 1}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ConvertBatch() error = %v, want context.Canceled", err)
	}
}

func TestService_ConcurrentConvert(t *testing.T) {
	svc := newTestService(t, NewMemoryHistory(50), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			res, err := svc.Convert(context.Background(), Request{Category: "Length", From: "km", To: "m", Value: v})
			if err != nil {
				t.Errorf("Convert() error = %v", err)
				return
			}
			if res.Result != v*1000 {
				t.Errorf("Convert(%v km) = %v m", v, res.Result)
			}
		}(float64(i))
	}
	wg.Wait()
}

func TestService_Categories(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	cats := svc.Categories()
	if len(cats) != 3 || cats[0].Name != "Length" || cats[1].Name != "Temperature" {
		t.Errorf("Categories() = %+v, want Length, Temperature, Broken", cats)
	}

	if _, err := svc.Category("Nope"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Category(Nope) error = %v, want ErrUnknownCategory", err)
	}
}
