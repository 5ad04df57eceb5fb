package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/finconsol/internal/seed"
	"github.com/odyssey-erp/finconsol/internal/variance"
)

type calcOutput struct {
	Actual   float64  `yaml:"actual"`
	Baseline float64  `yaml:"baseline"`
	Kind     string   `yaml:"kind"`
	Percent  *float64 `yaml:"percent"`
	Display  string   `yaml:"display"`
	Severity string   `yaml:"severity"`
}

type tableRowOutput struct {
	Metric     string `yaml:"metric"`
	VsBudget   string `yaml:"vs_budget"`
	VsForecast string `yaml:"vs_forecast"`
	Flagged    bool   `yaml:"flagged"`
}

func newVarianceCommand(load func() (*seed.Dataset, error)) *cobra.Command {
	var actual, baseline float64
	var kind string

	cmd := &cobra.Command{
		Use:   "variance",
		Short: "Compute one variance, or the dataset comparison table without flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("actual") || cmd.Flags().Changed("baseline") {
				out, err := calculate(actual, baseline, kind)
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), out)
			}
			dataset, err := load()
			if err != nil {
				return err
			}
			svc, err := variance.NewService(dataset.ComparisonRows(), dataset.Thresholds)
			if err != nil {
				return err
			}
			rows, err := svc.Table(context.Background())
			if err != nil {
				return err
			}
			out := make([]tableRowOutput, len(rows))
			for i, row := range rows {
				out[i] = tableRowOutput{
					Metric:     row.Metric,
					VsBudget:   row.BudgetDisplay,
					VsForecast: row.ForecastDisplay,
					Flagged:    row.Flagged,
				}
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Float64Var(&actual, "actual", 0, "actual value")
	cmd.Flags().Float64Var(&baseline, "baseline", 0, "budget or forecast value")
	cmd.Flags().StringVar(&kind, "kind", string(variance.KindRevenue), "metric kind: revenue, cost, volume or profit")

	return cmd
}

func calculate(actual, baseline float64, rawKind string) (calcOutput, error) {
	kind, err := variance.ParseMetricKind(rawKind)
	if err != nil {
		return calcOutput{}, err
	}
	out := calcOutput{Actual: actual, Baseline: baseline, Kind: string(kind), Severity: string(variance.SeverityUndefined)}
	pct, err := variance.Calculate(actual, baseline)
	if errors.Is(err, variance.ErrNonFinite) {
		return calcOutput{}, err
	}
	out.Display = variance.FormatResult(pct, err)
	if err == nil {
		out.Percent = &pct
		out.Severity = string(variance.Assess(pct, kind))
	}
	return out, nil
}
