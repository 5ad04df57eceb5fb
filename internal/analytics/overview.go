package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/finconsol/internal/consol"
)

// OverviewRequest scopes a dashboard build.
type OverviewRequest struct {
	Currency consol.Currency
	Expanded []string
}

// Overview is the dashboard payload.
type Overview struct {
	KPIs   []KPIMetric      `json:"kpis"`
	Bridge []Step           `json:"bridge"`
	Trend  []TrendPoint     `json:"trend"`
	Macro  []MacroIndicator `json:"macro"`
	Ledger consol.View      `json:"ledger"`
}

var overviewGroup singleflight.Group

// Overview assembles every dashboard section concurrently. Identical
// concurrent requests share one build.
func (s *Service) Overview(ctx context.Context, req OverviewRequest) (Overview, error) {
	key, err := s.cache.BuildKey(ctx, keyOverview(string(req.Currency), consol.NewExpansion(req.Expanded...).Snapshot()))
	if err != nil {
		return Overview{}, err
	}
	shared := context.WithoutCancel(ctx)
	ch := overviewGroup.DoChan(key, func() (interface{}, error) {
		var out Overview
		err := s.cache.FetchJSON(shared, key, &out, func(ctx context.Context) (interface{}, error) {
			return s.buildOverview(ctx, req)
		})
		return out, err
	})
	select {
	case <-ctx.Done():
		return Overview{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Overview{}, res.Err
		}
		return res.Val.(Overview), nil
	}
}

func (s *Service) buildOverview(ctx context.Context, req OverviewRequest) (Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpis, err := s.GetKPIs(gctx)
		out.KPIs = kpis
		return err
	})
	g.Go(func() error {
		steps, err := s.GetBridge(gctx)
		out.Bridge = steps
		return err
	})
	g.Go(func() error {
		trend, err := s.GetTrend(gctx)
		out.Trend = trend
		return err
	})
	g.Go(func() error {
		macro, err := s.GetMacro(gctx)
		out.Macro = macro
		return err
	})
	g.Go(func() error {
		view, err := s.ledger.Render(gctx, req.Expanded, req.Currency)
		out.Ledger = view
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}
