package svg

// Palette used by the consolidation dashboard charts.
const (
	ColorNavy  = "#003366"
	ColorRed   = "#F40009"
	ColorBlue  = "#1CA9C9"
	ColorGreen = "#10B981"
)

// WaterfallBar is one bar of a bridge chart: an invisible spacer of height
// Base topped by a visible segment of height Magnitude.
type WaterfallBar struct {
	Label     string
	Value     float64
	Base      float64
	Magnitude float64
	Total     bool
}

// WaterfallOpts customises the bridge renderer.
type WaterfallOpts struct {
	Title         string
	Description   string
	TotalColor    string
	IncreaseColor string
	DecreaseColor string
	AxisColor     string
	GridColor     string
	Padding       float64
	TickCount     int
}

// TrendOpts customises the monthly bars plus cumulative line renderer.
type TrendOpts struct {
	Title       string
	Description string
	BarColor    string
	LineColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
)
