package consolhttp

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts grid cache lookups and times renders per currency view.
type LedgerMetrics struct {
	lookups *prometheus.CounterVec
	renders *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger collectors on reg. Collectors already
// registered under the same names are reused.
func NewLedgerMetrics(reg prometheus.Registerer) (*LedgerMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finconsol_ledger_cache_lookups_total",
		Help: "Rendered ledger grid lookups by currency view and result.",
	}, []string{"currency", "result"})
	renders := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finconsol_ledger_render_duration_seconds",
		Help:    "Time spent rendering the consolidated ledger grid.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"currency"})

	var err error
	if lookups, err = register(reg, lookups); err != nil {
		return nil, err
	}
	if renders, err = register(reg, renders); err != nil {
		return nil, err
	}
	return &LedgerMetrics{lookups: lookups, renders: renders}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *LedgerMetrics) lookup(currency string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(currency, result).Inc()
}

func (m *LedgerMetrics) rendered(currency string, d time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(currency).Observe(d.Seconds())
}
