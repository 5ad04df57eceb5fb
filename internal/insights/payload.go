package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/variance"
)

// Payload is the data handed to the summarizer.
type Payload struct {
	Period    string                     `json:"period"`
	Variances []variance.VarianceRow     `json:"variances"`
	Macro     []analytics.MacroIndicator `json:"macro"`
}

// VarianceSource supplies the comparison table.
type VarianceSource interface {
	Table(ctx context.Context) ([]variance.VarianceRow, error)
}

// MacroSource supplies the macro indicators.
type MacroSource interface {
	GetMacro(ctx context.Context) ([]analytics.MacroIndicator, error)
}

// PayloadBuilder assembles payloads from the live services.
type PayloadBuilder struct {
	Period    string
	Variances VarianceSource
	Macro     MacroSource
}

// Build loads the variance table and macro indicators.
func (b PayloadBuilder) Build(ctx context.Context) (Payload, error) {
	rows, err := b.Variances.Table(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("insights: load variances: %w", err)
	}
	macro, err := b.Macro.GetMacro(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("insights: load macro: %w", err)
	}
	return Payload{Period: b.Period, Variances: rows, Macro: macro}, nil
}

// BuildPrompt renders the payload as the instruction sent to the model.
func BuildPrompt(p Payload) string {
	var b strings.Builder
	period := p.Period
	if period == "" {
		period = "the current period"
	}
	fmt.Fprintf(&b, "You are a senior financial analyst. Write an executive summary of %s performance in Markdown.\n", period)
	b.WriteString("Cover key performance drivers, the impact of macro factors, and strategic recommendations.\n\n")
	b.WriteString("Financials (actual vs budget and forecast):\n")
	for _, row := range p.Variances {
		fmt.Fprintf(&b, "- %s (%s): actual %.2f, budget %.2f, forecast %.2f, vs budget %s, vs forecast %s\n",
			row.Metric, row.Unit, row.Actual, row.Budget, row.Forecast, row.BudgetDisplay, row.ForecastDisplay)
	}
	if len(p.Macro) > 0 {
		b.WriteString("\nMacro indicators:\n")
		for _, m := range p.Macro {
			fmt.Fprintf(&b, "- %s: %s (%s) %s\n", m.Indicator, m.Value, m.Impact, m.Description)
		}
	}
	return b.String()
}
