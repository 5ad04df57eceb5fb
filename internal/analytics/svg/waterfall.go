package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Waterfall renders a bridge chart using a transparent spacer bar stacked
// under a coloured magnitude bar for every step.
func Waterfall(width, height int, bars []WaterfallBar, opts WaterfallOpts) (template.HTML, error) {
	if len(bars) == 0 {
		return "", fmt.Errorf("svg: bars required")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	axisColor := orDefault(opts.AxisColor, "#475569")
	gridColor := orDefault(opts.GridColor, "#E5E7EB")
	totalColor := orDefault(opts.TotalColor, ColorNavy)
	upColor := orDefault(opts.IncreaseColor, ColorGreen)
	downColor := orDefault(opts.DecreaseColor, ColorRed)

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	edges := make([]float64, 0, len(bars)*2)
	for _, bar := range bars {
		if bar.Magnitude < 0 {
			return "", fmt.Errorf("svg: bar %q has negative magnitude", bar.Label)
		}
		edges = append(edges, bar.Base, bar.Base+bar.Magnitude)
	}
	minVal, maxVal := axisRange(edges)
	scale := chartHeight / (maxVal - minVal)
	yOf := func(v float64) float64 { return padding + chartHeight - (v-minVal)*scale }

	slot := chartWidth / float64(len(bars))
	barWidth := slot * 0.6

	titleID := elementID(opts.Title, "waterfall-title")
	descID := elementID(opts.Title, "waterfall-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(orDefault(opts.Title, "Profit bridge"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(orDefault(opts.Description, "Waterfall from opening to closing total"))))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		value := minVal + (maxVal-minVal)*ratio
		y := yOf(value)
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"3,3\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(tickLabel(value))))
	}

	for i, bar := range bars {
		x := padding + float64(i)*slot + (slot-barWidth)/2
		fill := upColor
		switch {
		case bar.Total:
			fill = totalColor
		case bar.Value < 0:
			fill = downColor
		}
		label := template.HTMLEscapeString(bar.Label)
		b.WriteString(fmt.Sprintf("<g aria-label=\"%s %s\">", label, template.HTMLEscapeString(tickLabel(bar.Value))))
		if !nearZero(bar.Base) {
			top, bottom := yOf(bar.Base), yOf(0)
			if top > bottom {
				top, bottom = bottom, top
			}
			b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"transparent\" data-role=\"base\"></rect>", x, top, barWidth, bottom-top))
		}
		top := yOf(bar.Base + bar.Magnitude)
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" data-role=\"value\"></rect>", x, top, barWidth, bar.Magnitude*scale, fill))
		b.WriteString("</g>")
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x+barWidth/2, padding+chartHeight+14, axisColor, label))
	}

	zeroY := yOf(0)
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"#000\" stroke-width=\"1\"></line>", padding, zeroY, padding+chartWidth, zeroY))
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
