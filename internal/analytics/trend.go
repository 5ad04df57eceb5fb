package analytics

// MonthlyProfit is a single month of attributable profit.
type MonthlyProfit struct {
	Month  string  `json:"month" yaml:"month" mapstructure:"month"`
	Profit float64 `json:"profit" yaml:"profit" mapstructure:"profit"`
}

// TrendPoint pairs a month with its running year-to-date total.
type TrendPoint struct {
	Month      string  `json:"month"`
	Profit     float64 `json:"profit"`
	Cumulative float64 `json:"cumulative"`
}

// Cumulative accumulates monthly profit into a year-to-date series.
func Cumulative(points []MonthlyProfit) []TrendPoint {
	out := make([]TrendPoint, 0, len(points))
	running := 0.0
	for _, p := range points {
		running += p.Profit
		out = append(out, TrendPoint{Month: p.Month, Profit: p.Profit, Cumulative: running})
	}
	return out
}

func trendSeries(points []TrendPoint) (labels []string, monthly, cumulative []float64) {
	labels = make([]string, len(points))
	monthly = make([]float64, len(points))
	cumulative = make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Month
		monthly[i] = p.Profit
		cumulative[i] = p.Cumulative
	}
	return labels, monthly, cumulative
}
