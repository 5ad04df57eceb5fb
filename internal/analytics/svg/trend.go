package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Trend renders monthly bars on the left axis with a cumulative line on the right axis.
func Trend(width, height int, monthly, cumulative []float64, labels []string, opts TrendOpts) (template.HTML, error) {
	if len(monthly) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(monthly) != len(labels) || len(cumulative) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
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
	barColor := orDefault(opts.BarColor, ColorBlue)
	lineColor := orDefault(opts.LineColor, ColorNavy)
	axisColor := orDefault(opts.AxisColor, "#475569")
	gridColor := orDefault(opts.GridColor, "#f5f5f5")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	barMin, barMax := axisRange(monthly)
	lineMin, lineMax := axisRange(cumulative)
	barScale := chartHeight / (barMax - barMin)
	lineScale := chartHeight / (lineMax - lineMin)
	bottom := padding + chartHeight

	slot := chartWidth / float64(len(labels))
	barWidth := slot * 0.5
	center := func(i int) float64 { return padding + float64(i)*slot + slot/2 }

	titleID := elementID(opts.Title, "trend-title")
	descID := elementID(opts.Title, "trend-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(orDefault(opts.Title, "Monthly profit trend"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(orDefault(opts.Description, "Monthly and cumulative profit"))))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := bottom - ratio*chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(tickLabel(barMin+(barMax-barMin)*ratio))))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", padding+chartWidth+6, y+4, axisColor, template.HTMLEscapeString(tickLabel(lineMin+(lineMax-lineMin)*ratio))))
	}

	zeroY := bottom - (0-barMin)*barScale
	for i, value := range monthly {
		h := value * barScale
		y := zeroY - h
		if h < 0 {
			y, h = zeroY, -h
		}
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" rx=\"4\" fill=\"%s\" aria-label=\"Monthly %s\"></rect>", center(i)-barWidth/2, y, barWidth, h, barColor, template.HTMLEscapeString(labels[i])))
	}

	var path strings.Builder
	for i, value := range cumulative {
		y := bottom - (value-lineMin)*lineScale
		if i == 0 {
			path.WriteString(fmt.Sprintf("M%.2f %.2f", center(i), y))
		} else {
			path.WriteString(fmt.Sprintf(" L%.2f %.2f", center(i), y))
		}
	}
	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"Cumulative\"></path>", path.String(), lineColor))

	if opts.ShowDots {
		for i, value := range cumulative {
			y := bottom - (value-lineMin)*lineScale
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", center(i), y, lineColor))
		}
	}

	for i, label := range labels {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center(i), bottom+14, axisColor, template.HTMLEscapeString(label)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
