package consolhttp

import (
	"context"
	"errors"
	"testing"

	"github.com/odyssey-erp/finconsol/internal/consol"
)

func TestSingleflightRenderIgnoresCallerCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	seen := make(chan error, 1)
	render := func(ctx context.Context) (consol.View, error) {
		close(started)
		<-release
		seen <- ctx.Err()
		return consol.View{Currency: consol.CurrencyHKD}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err, _ := singleflightRender(ctx, "HKD|cancel", render)
		done <- err
	}()
	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
	close(release)
	if err := <-seen; err != nil {
		t.Fatalf("render saw cancelled context: %v", err)
	}
}
