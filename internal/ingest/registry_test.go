package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

var fixedNow = time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)

func newTestRegistry(store Store, opts ...Option) *Registry {
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDs(func() string {
			seq++
			return fmt.Sprintf("f%d", seq)
		}),
	}
	return NewRegistry(store, append(base, opts...)...)
}

func TestResolvedAtOmittedUntilResolved(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryStore())
	file, err := reg.Submit(ctx, SubmitInput{Market: "USA", Filename: "US_Budget_2024.xlsx"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	raw, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "resolved_at") {
		t.Fatalf("processing record carries resolved_at: %s", raw)
	}

	resolved, err := reg.Resolve(ctx, file.ID, ResolveInput{Status: StatusValid})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	raw, err = json.Marshal(resolved)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"resolved_at":"2024-05-20T14:30:00Z"`) {
		t.Fatalf("resolved record missing resolved_at: %s", raw)
	}
}

func TestSubmitStartsProcessing(t *testing.T) {
	reg := newTestRegistry(NewMemoryStore())
	file, err := reg.Submit(context.Background(), SubmitInput{Market: "Taiwan", Filename: "TW_Budget_2024.xlsx"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if file.ID != "f1" || file.Market != fx.MarketTaiwan || file.Status != StatusProcessing {
		t.Fatalf("unexpected record %+v", file)
	}
	if !file.UploadDate.Equal(fixedNow) {
		t.Fatalf("expected injected clock, got %s", file.UploadDate)
	}
	if got := file.DisplayDate(); got != "2024-05-20 02:30 PM" {
		t.Fatalf("unexpected display date %q", got)
	}
}

func TestSubmitRejectsUnknownMarket(t *testing.T) {
	reg := newTestRegistry(NewMemoryStore())
	_, err := reg.Submit(context.Background(), SubmitInput{Market: "Japan", Filename: "JP.xlsx"})
	if !errors.Is(err, fx.ErrUnknownMarket) {
		t.Fatalf("expected unknown market, got %v", err)
	}
	if _, err := reg.Submit(context.Background(), SubmitInput{Market: "usa"}); err == nil {
		t.Fatalf("expected filename validation error")
	}
}

func TestResolveExactlyOnce(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryStore())
	file, err := reg.Submit(ctx, SubmitInput{Market: "usa", Filename: "US_Forecast_Q3.xls"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	resolved, err := reg.Resolve(ctx, file.ID, ResolveInput{Status: StatusError, Errors: []string{"Row 45: Invalid Account Code"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != StatusError || len(resolved.Errors) != 1 {
		t.Fatalf("unexpected resolution %+v", resolved)
	}

	_, err = reg.Resolve(ctx, file.ID, ResolveInput{Status: StatusValid})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	current, err := reg.Get(ctx, file.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Status != StatusError || current.Errors[0] != "Row 45: Invalid Account Code" {
		t.Fatalf("state changed after rejected resolve: %+v", current)
	}
}

func TestResolveOutcomeConsistency(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryStore())
	file, _ := reg.Submit(ctx, SubmitInput{Market: "hk", Filename: "HK.csv"})

	cases := map[string]ResolveInput{
		"valid with errors":    {Status: StatusValid, Errors: []string{"boom"}},
		"error without errors": {Status: StatusError},
		"processing outcome":   {Status: StatusProcessing},
	}
	for name, in := range cases {
		if _, err := reg.Resolve(ctx, file.ID, in); !errors.Is(err, ErrInvalidOutcome) {
			t.Fatalf("%s: expected invalid outcome, got %v", name, err)
		}
	}
	current, _ := reg.Get(ctx, file.ID)
	if current.Status != StatusProcessing {
		t.Fatalf("rejected outcomes must not change state: %+v", current)
	}
}

func TestResolveUnknownID(t *testing.T) {
	reg := newTestRegistry(NewMemoryStore())
	if _, err := reg.Resolve(context.Background(), "missing", ResolveInput{Status: StatusValid}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListKeepsSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryStore())
	for _, m := range []string{"china", "usa", "hk", "taiwan"} {
		if _, err := reg.Submit(ctx, SubmitInput{Market: m, Filename: m + ".csv"}); err != nil {
			t.Fatalf("submit %s: %v", m, err)
		}
	}
	files, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []fx.Market{fx.MarketChina, fx.MarketUSA, fx.MarketHK, fx.MarketTaiwan}
	for i, f := range files {
		if f.Market != want[i] {
			t.Fatalf("position %d: got %s want %s", i, f.Market, want[i])
		}
	}
}

func TestResolveHookFires(t *testing.T) {
	ctx := context.Background()
	var seen []Status
	reg := newTestRegistry(NewMemoryStore(), OnResolve(func(ctx context.Context, f MarketFile) {
		seen = append(seen, f.Status)
	}))
	file, _ := reg.Submit(ctx, SubmitInput{Market: "china", Filename: "CN.xlsx"})
	if _, err := reg.Resolve(ctx, file.ID, ResolveInput{Status: StatusValid}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	_, _ = reg.Resolve(ctx, file.ID, ResolveInput{Status: StatusValid})
	if len(seen) != 1 || seen[0] != StatusValid {
		t.Fatalf("expected a single hook call, got %v", seen)
	}
}

func TestSeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(NewMemoryStore())
	records := []MarketFile{
		{ID: "seed-1", Market: fx.MarketChina, Filename: "CN_Budget_2024_v2.xlsx", Status: StatusValid, UploadDate: fixedNow},
		{ID: "seed-2", Market: fx.MarketHK, Filename: "HK_Final_Submission.xlsx", Status: StatusProcessing, UploadDate: fixedNow},
	}
	if err := reg.Seed(ctx, records); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := reg.Seed(ctx, records); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	files, _ := reg.List(ctx)
	if len(files) != 2 {
		t.Fatalf("expected 2 records, got %d", len(files))
	}
}
