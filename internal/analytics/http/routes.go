package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
)

// exportsPerMinute bounds rendered chart and CSV downloads per client.
const exportsPerMinute = 30

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/kpis", h.handleKPIs)
	r.Get("/macro", h.handleMacro)
	r.Get("/bridge", h.handleBridge)
	r.Get("/trend", h.handleTrend)

	r.Group(func(r chi.Router) {
		r.Use(exportLimiter())
		r.Get("/bridge/chart.svg", h.handleBridgeChart)
		r.Get("/trend/chart.svg", h.handleTrendChart)
		r.Get("/dashboard/export.csv", h.handleCSV)
	})

	if h.states != nil {
		r.Route("/state/{session}", func(r chi.Router) {
			r.Get("/", h.handleGetState)
			r.Put("/", h.handlePutState)
		})
	}
}

func exportLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(exportsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export limit reached, retry shortly")
		}),
	)
}
