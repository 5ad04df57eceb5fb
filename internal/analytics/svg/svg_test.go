package svg

import (
	"strings"
	"testing"
)

func TestWaterfallDrawsSpacerAndValueBars(t *testing.T) {
	bars := []WaterfallBar{
		{Label: "LY Actual", Value: 800, Base: 0, Magnitude: 800, Total: true},
		{Label: "Price", Value: 120, Base: 800, Magnitude: 120},
		{Label: "Mix", Value: -30, Base: 930, Magnitude: 30},
		{Label: "Budget", Value: 760, Base: 0, Magnitude: 760, Total: true},
	}
	html, err := Waterfall(480, 240, bars, WaterfallOpts{Title: "Profit Bridge"})
	if err != nil {
		t.Fatalf("waterfall renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if got := strings.Count(output, `data-role="base"`); got != 2 {
		t.Fatalf("expected 2 spacer bars got %d", got)
	}
	if got := strings.Count(output, `data-role="value"`); got != 4 {
		t.Fatalf("expected 4 value bars got %d", got)
	}
	for _, color := range []string{ColorNavy, ColorGreen, ColorRed} {
		if !strings.Contains(output, color) {
			t.Fatalf("expected colour %s in output", color)
		}
	}
	if !strings.Contains(output, "profit-bridge-waterfall-title") {
		t.Fatalf("expected accessibility id")
	}
}

func TestWaterfallRejectsNegativeMagnitude(t *testing.T) {
	if _, err := Waterfall(0, 0, []WaterfallBar{{Label: "x", Magnitude: -1}}, WaterfallOpts{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTrendProducesBarsAndLine(t *testing.T) {
	html, err := Trend(400, 200, []float64{65, 58, 72}, []float64{65, 123, 195}, []string{"Jan", "Feb", "Mar"}, TrendOpts{
		Title:    "Monthly Profit Trend",
		ShowDots: true,
	})
	if err != nil {
		t.Fatalf("trend renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "<rect") != 3 {
		t.Fatalf("expected 3 monthly bars")
	}
	if !strings.Contains(output, "<path") || strings.Count(output, "<circle") != 3 {
		t.Fatalf("expected cumulative line with dots")
	}
}

func TestTrendLengthMismatch(t *testing.T) {
	if _, err := Trend(0, 0, []float64{1, 2}, []float64{1}, []string{"a", "b"}, TrendOpts{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTickLabel(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		12.5:       "12.50",
		-1260:      "-1.3k",
		4_200_000:  "4.2M",
		31_000_000: "31.0M",
	}
	for in, want := range cases {
		if got := tickLabel(in); got != want {
			t.Fatalf("tickLabel(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestAxisRangeIncludesZero(t *testing.T) {
	lo, hi := axisRange([]float64{120, 340})
	if lo != 0 || hi != 340 {
		t.Fatalf("unexpected range %v..%v", lo, hi)
	}
	lo, hi = axisRange([]float64{0, 0})
	if lo != 0 || hi != 1 {
		t.Fatalf("flat series should widen, got %v..%v", lo, hi)
	}
	if id := elementID(" Profit Bridge (HKD) ", "title"); id != "profit-bridge-hkd-title" {
		t.Fatalf("unexpected id %q", id)
	}
}
