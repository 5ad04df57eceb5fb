package analytics

import (
	"context"
	"fmt"
	"html/template"

	"github.com/odyssey-erp/finconsol/internal/analytics/svg"
	"github.com/odyssey-erp/finconsol/internal/consol"
)

// Source supplies the reference figures behind the dashboard.
type Source interface {
	KPIs(ctx context.Context) ([]KPIMetric, error)
	Macro(ctx context.Context) ([]MacroIndicator, error)
	Bridge(ctx context.Context) (BridgeInput, error)
	MonthlyProfit(ctx context.Context) ([]MonthlyProfit, error)
}

// LedgerRenderer renders the consolidated grid.
type LedgerRenderer interface {
	Render(ctx context.Context, expanded []string, currency consol.Currency) (consol.View, error)
}

// Service coordinates dashboard figures with the cache layer.
type Service struct {
	source Source
	ledger LedgerRenderer
	cache  *Cache
}

// NewService wires a Source and ledger with a Cache helper.
func NewService(source Source, ledger LedgerRenderer, cache *Cache) *Service {
	return &Service{source: source, ledger: ledger, cache: cache}
}

// GetKPIs returns the headline cards after checking trend consistency.
func (s *Service) GetKPIs(ctx context.Context) ([]KPIMetric, error) {
	key, err := s.cache.BuildKey(ctx, keyKPIs())
	if err != nil {
		return nil, err
	}
	var out []KPIMetric
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		kpis, err := s.source.KPIs(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range kpis {
			if err := k.Validate(); err != nil {
				return nil, err
			}
		}
		return kpis, nil
	})
	return out, err
}

// GetMacro returns the macro indicators.
func (s *Service) GetMacro(ctx context.Context) ([]MacroIndicator, error) {
	return s.source.Macro(ctx)
}

// GetBridge sequences the profit bridge.
func (s *Service) GetBridge(ctx context.Context) ([]Step, error) {
	key, err := s.cache.BuildKey(ctx, keyBridge())
	if err != nil {
		return nil, err
	}
	var out []Step
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		in, err := s.source.Bridge(ctx)
		if err != nil {
			return nil, err
		}
		return BuildBridge(in)
	})
	return out, err
}

// GetTrend returns the monthly profit with its cumulative total.
func (s *Service) GetTrend(ctx context.Context) ([]TrendPoint, error) {
	key, err := s.cache.BuildKey(ctx, keyTrend())
	if err != nil {
		return nil, err
	}
	var out []TrendPoint
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		monthly, err := s.source.MonthlyProfit(ctx)
		if err != nil {
			return nil, err
		}
		return Cumulative(monthly), nil
	})
	return out, err
}

// BridgeChart renders the profit bridge as SVG.
func (s *Service) BridgeChart(ctx context.Context, width, height int) (template.HTML, error) {
	steps, err := s.GetBridge(ctx)
	if err != nil {
		return "", err
	}
	bars := make([]svg.WaterfallBar, len(steps))
	for i, step := range steps {
		bars[i] = svg.WaterfallBar{
			Label:     step.Name,
			Value:     step.Value,
			Base:      step.Base(),
			Magnitude: step.Magnitude(),
			Total:     step.Kind() == StepTotal,
		}
	}
	return svg.Waterfall(width, height, bars, svg.WaterfallOpts{
		Title:       "Profit Bridge (LY Actual to Budget)",
		Description: fmt.Sprintf("%s to %s", steps[0].Name, steps[len(steps)-1].Name),
	})
}

// TrendChart renders the monthly profit trend as SVG.
func (s *Service) TrendChart(ctx context.Context, width, height int) (template.HTML, error) {
	points, err := s.GetTrend(ctx)
	if err != nil {
		return "", err
	}
	labels, monthly, cumulative := trendSeries(points)
	return svg.Trend(width, height, monthly, cumulative, labels, svg.TrendOpts{
		Title:    "Monthly Profit Trend",
		ShowDots: true,
	})
}

// Invalidate drops every cached dashboard figure.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
