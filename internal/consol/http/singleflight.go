package consolhttp

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/finconsol/internal/consol"
)

var renderGroup singleflight.Group

// singleflightRender shares one render between concurrent callers. The render
// runs detached from the first caller's cancellation; each caller still stops
// waiting when its own context ends.
func singleflightRender(ctx context.Context, key string, fn func(context.Context) (consol.View, error)) (consol.View, error, bool) {
	shared := context.WithoutCancel(ctx)
	resultChan := renderGroup.DoChan(key, func() (interface{}, error) {
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return consol.View{}, ctx.Err(), false
	case res := <-resultChan:
		if res.Err != nil {
			return consol.View{}, res.Err, res.Shared
		}
		return res.Val.(consol.View), nil, res.Shared
	}
}
