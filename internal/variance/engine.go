package variance

import (
	"fmt"
	"math"
)

// FlatThreshold is the absolute percentage below which a variance reads as flat.
const FlatThreshold = 0.1

// NotAvailable is displayed for an undefined variance.
const NotAvailable = "N/A"

// Calculate returns ((actual - baseline) / |baseline|) * 100 without rounding.
func Calculate(actual, baseline float64) (float64, error) {
	if !finite(actual) || !finite(baseline) {
		return 0, ErrNonFinite
	}
	if baseline == 0 {
		return 0, ErrDivisionByZero
	}
	pct := ((actual - baseline) / math.Abs(baseline)) * 100
	if !finite(pct) {
		return 0, ErrNonFinite
	}
	return pct, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Assess classifies a variance for display. The numeric value is never altered.
func Assess(pct float64, kind MetricKind) Severity {
	if math.Abs(pct) < FlatThreshold {
		return SeverityFlat
	}
	favorable := pct > 0
	if kind.IsCost() {
		favorable = !favorable
	}
	if favorable {
		return SeverityFavorable
	}
	return SeverityAdverse
}

// Format renders a variance with one decimal and an explicit sign, e.g. +5.2%.
func Format(pct float64) string {
	rounded := math.Round(pct*10) / 10
	if rounded == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%+.1f%%", rounded)
}

// FormatResult renders the output of Calculate, N/A when it failed.
func FormatResult(pct float64, err error) string {
	if err != nil {
		return NotAvailable
	}
	return Format(pct)
}

// Compare computes actual-vs-budget and actual-vs-forecast for every row in order.
func Compare(rows []ComparisonRow, thresholds Thresholds) []VarianceRow {
	out := make([]VarianceRow, 0, len(rows))
	for _, row := range rows {
		vr := VarianceRow{ComparisonRow: row}
		vr.VsBudget, vr.BudgetSeverity, vr.BudgetDisplay = measure(row.Actual, row.Budget, row.Kind)
		vr.VsForecast, vr.ForecastSeverity, vr.ForecastDisplay = measure(row.Actual, row.Forecast, row.Kind)
		vr.Flagged = exceedsThreshold(row.Actual-row.Budget, vr.VsBudget, thresholds) ||
			exceedsThreshold(row.Actual-row.Forecast, vr.VsForecast, thresholds)
		out = append(out, vr)
	}
	return out
}

func measure(actual, baseline float64, kind MetricKind) (*float64, Severity, string) {
	pct, err := Calculate(actual, baseline)
	if err != nil {
		return nil, SeverityUndefined, NotAvailable
	}
	return &pct, Assess(pct, kind), Format(pct)
}

func exceedsThreshold(diff float64, pct *float64, t Thresholds) bool {
	if t.Amount != nil && math.Abs(diff) >= *t.Amount {
		return true
	}
	if t.Percent != nil && pct != nil && math.Abs(*pct) >= *t.Percent {
		return true
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
