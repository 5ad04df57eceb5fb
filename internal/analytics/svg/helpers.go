package svg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const epsilon = 1e-9

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// axisRange returns the value range of series widened to include zero.
// A flat series gets a unit range so scaling never divides by zero.
func axisRange(series []float64) (float64, float64) {
	lo := math.Min(slices.Min(series), 0)
	hi := math.Max(slices.Max(series), 0)
	if nearZero(hi - lo) {
		hi = lo + 1
	}
	return lo, hi
}

func nearZero(v float64) bool {
	return math.Abs(v) < epsilon
}

var idUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// elementID derives a document-safe id from a chart title.
func elementID(title, role string) string {
	slug := strings.Trim(idUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-"), "-")
	if slug == "" {
		slug = "chart"
	}
	return slug + "-" + role
}

var tickUnits = []struct {
	size   float64
	suffix string
}{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "k"},
}

// tickLabel abbreviates axis values: 1250 becomes "1.3k".
func tickLabel(v float64) string {
	for _, u := range tickUnits {
		if math.Abs(v) >= u.size {
			return strconv.FormatFloat(v/u.size, 'f', 1, 64) + u.suffix
		}
	}
	if nearZero(v - math.Round(v)) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
