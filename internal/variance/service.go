package variance

import (
	"context"
	"fmt"
	"strings"
)

// Service serves the performance comparison table.
type Service struct {
	rows       []ComparisonRow
	thresholds Thresholds
}

// NewService validates the comparison rows and thresholds.
func NewService(rows []ComparisonRow, thresholds Thresholds) (*Service, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if strings.TrimSpace(row.Metric) == "" {
			return nil, fmt.Errorf("variance: row %d has empty metric", i)
		}
		kind, err := ParseMetricKind(string(row.Kind))
		if err != nil {
			return nil, fmt.Errorf("variance: row %q: %w", row.Metric, err)
		}
		rows[i].Kind = kind
	}
	return &Service{rows: append([]ComparisonRow(nil), rows...), thresholds: thresholds}, nil
}

// Table computes the variance rows against budget and forecast.
func (s *Service) Table(ctx context.Context) ([]VarianceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Compare(s.rows, s.thresholds), nil
}

// Thresholds returns the configured flagging thresholds.
func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

// ExportRows formats rows into CSV-ready strings.
func ExportRows(rows []VarianceRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	header := []string{"Metric", "Unit", "Actual", "Budget", "Forecast", "Var vs Bud", "Var vs Fcst", "Flagged"}
	out = append(out, header)
	for _, row := range rows {
		out = append(out, []string{
			row.Metric,
			row.Unit,
			fmt.Sprintf("%.2f", round2(row.Actual)),
			fmt.Sprintf("%.2f", round2(row.Budget)),
			fmt.Sprintf("%.2f", round2(row.Forecast)),
			row.BudgetDisplay,
			row.ForecastDisplay,
			fmt.Sprintf("%t", row.Flagged),
		})
	}
	return out
}
