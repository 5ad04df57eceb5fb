package variance

import (
	"errors"
	"fmt"
	"strings"
)

// MetricKind classifies a metric so the sign convention does not depend on its label.
type MetricKind string

const (
	// KindRevenue covers top-line metrics.
	KindRevenue MetricKind = "revenue"
	// KindCost covers COGS and operating expenses.
	KindCost MetricKind = "cost"
	// KindVolume covers unit-case volume.
	KindVolume MetricKind = "volume"
	// KindProfit covers margin and profit lines.
	KindProfit MetricKind = "profit"
)

// IsCost reports whether a positive variance is adverse for this kind.
func (k MetricKind) IsCost() bool {
	return k == KindCost
}

// ParseMetricKind normalises a kind string; empty defaults to revenue.
func ParseMetricKind(raw string) (MetricKind, error) {
	switch kind := MetricKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "":
		return KindRevenue, nil
	case KindRevenue, KindCost, KindVolume, KindProfit:
		return kind, nil
	}
	return "", fmt.Errorf("variance: unknown metric kind %q", raw)
}

// Severity is the display classification of a variance.
type Severity string

const (
	SeverityFavorable Severity = "favorable"
	SeverityAdverse   Severity = "adverse"
	SeverityFlat      Severity = "flat"
	// SeverityUndefined marks a variance against a zero baseline.
	SeverityUndefined Severity = "undefined"
)

// ComparisonRow is one metric of the performance comparison table.
type ComparisonRow struct {
	Metric   string     `json:"metric" yaml:"metric" mapstructure:"metric"`
	Kind     MetricKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Unit     string     `json:"unit" yaml:"unit" mapstructure:"unit"`
	Actual   float64    `json:"actual" yaml:"actual" mapstructure:"actual"`
	Budget   float64    `json:"budget" yaml:"budget" mapstructure:"budget"`
	Forecast float64    `json:"forecast" yaml:"forecast" mapstructure:"forecast"`
}

// VarianceRow is a comparison row with its computed variances.
type VarianceRow struct {
	ComparisonRow
	VsBudget         *float64 `json:"vs_budget"`
	VsForecast       *float64 `json:"vs_forecast"`
	BudgetSeverity   Severity `json:"budget_severity"`
	ForecastSeverity Severity `json:"forecast_severity"`
	BudgetDisplay    string   `json:"budget_display"`
	ForecastDisplay  string   `json:"forecast_display"`
	Flagged          bool     `json:"flagged"`
}

// Thresholds flags rows whose absolute or percentage deviation is large.
type Thresholds struct {
	Amount  *float64 `json:"amount,omitempty" yaml:"amount" mapstructure:"amount"`
	Percent *float64 `json:"percent,omitempty" yaml:"percent" mapstructure:"percent"`
}

// Validate ensures thresholds are non-negative.
func (t Thresholds) Validate() error {
	if t.Amount != nil && *t.Amount < 0 {
		return errors.New("variance: amount threshold must be non-negative")
	}
	if t.Percent != nil && *t.Percent < 0 {
		return errors.New("variance: percent threshold must be non-negative")
	}
	return nil
}

var (
	// ErrDivisionByZero occurs when the baseline is zero.
	ErrDivisionByZero = errors.New("variance: division by zero baseline")
	// ErrNonFinite occurs when an input or the computed percentage is NaN or infinite.
	ErrNonFinite = errors.New("variance: non-finite value")
)
