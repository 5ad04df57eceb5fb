package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// Trend is the direction arrow shown on a KPI card.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// TrendFor derives the arrow from a variance: up when variance >= 0.
func TrendFor(variance float64) Trend {
	if variance >= 0 {
		return TrendUp
	}
	return TrendDown
}

// ErrTrendMismatch occurs when a KPI arrow contradicts its variance sign.
var ErrTrendMismatch = errors.New("analytics: kpi trend inconsistent with variance")

// KPIMetric is a headline card compared against prior year.
type KPIMetric struct {
	ID       string  `json:"id" yaml:"id" mapstructure:"id"`
	Label    string  `json:"label" yaml:"label" mapstructure:"label"`
	Value    string  `json:"value" yaml:"value" mapstructure:"value"`
	Variance float64 `json:"variance" yaml:"variance" mapstructure:"variance"`
	Trend    Trend   `json:"trend" yaml:"trend" mapstructure:"trend"`
}

// Validate cross-checks the trend against the variance sign.
func (k KPIMetric) Validate() error {
	if strings.TrimSpace(k.ID) == "" || strings.TrimSpace(k.Label) == "" {
		return errors.New("analytics: kpi id and label required")
	}
	if k.Trend != TrendUp && k.Trend != TrendDown {
		return fmt.Errorf("analytics: kpi %s: unknown trend %q", k.ID, k.Trend)
	}
	if k.Trend != TrendFor(k.Variance) {
		return fmt.Errorf("%w: %s has variance %.1f and trend %s", ErrTrendMismatch, k.Label, k.Variance, k.Trend)
	}
	return nil
}

// Impact is the qualitative effect of a macro indicator on the group.
type Impact string

const (
	ImpactPositive Impact = "Positive"
	ImpactNegative Impact = "Negative"
	ImpactNeutral  Impact = "Neutral"
)

// MacroIndicator is an external market signal shown beside the variance table.
type MacroIndicator struct {
	Indicator   string `json:"indicator" yaml:"indicator" mapstructure:"indicator"`
	Value       string `json:"value" yaml:"value" mapstructure:"value"`
	Impact      Impact `json:"impact" yaml:"impact" mapstructure:"impact"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
}

// Validate checks the impact classification.
func (m MacroIndicator) Validate() error {
	switch m.Impact {
	case ImpactPositive, ImpactNegative, ImpactNeutral:
	default:
		return fmt.Errorf("analytics: macro %s: unknown impact %q", m.Indicator, m.Impact)
	}
	if strings.TrimSpace(m.Indicator) == "" {
		return errors.New("analytics: macro indicator name required")
	}
	return nil
}
