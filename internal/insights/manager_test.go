package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/variance"
)

// gatedSummarizer blocks until release is closed or ctx ends.
type gatedSummarizer struct {
	release chan struct{}
	text    string
	err     error
	prompts chan string
}

func newGated(text string, err error) *gatedSummarizer {
	return &gatedSummarizer{release: make(chan struct{}), text: text, err: err, prompts: make(chan string, 4)}
}

func (g *gatedSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	g.prompts <- prompt
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-g.release:
		return g.text, g.err
	}
}

func samplePayload() Payload {
	return Payload{
		Period: "May 2024",
		Variances: variance.Compare([]variance.ComparisonRow{
			{Metric: "Gross Revenue", Kind: variance.KindRevenue, Unit: "$m", Actual: 4285, Budget: 4150, Forecast: 4300},
		}, variance.Thresholds{}),
		Macro: []analytics.MacroIndicator{
			{Indicator: "China GDP Growth", Value: "+5.2%", Impact: analytics.ImpactPositive, Description: "Consumer spending recovery"},
		},
	}
}

func TestRequestSucceeds(t *testing.T) {
	sum := newGated("### Summary\n\n**Revenue** up", nil)
	m := NewManager(sum, time.Second, nil)

	snap, err := m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.NoError(t, err)
	require.Equal(t, PhasePending, snap.Phase)
	require.Equal(t, PhasePending, m.State(analytics.ViewVariance).Phase)

	prompt := <-sum.prompts
	require.Contains(t, prompt, "Gross Revenue")
	require.Contains(t, prompt, "China GDP Growth")

	close(sum.release)
	m.Wait()
	got := m.State(analytics.ViewVariance)
	require.Equal(t, PhaseSucceeded, got.Phase)
	require.Contains(t, string(got.HTML), "<strong>Revenue</strong>")
	require.Contains(t, string(got.HTML), "<h3>Summary</h3>")
}

func TestRequestRejectedWhilePending(t *testing.T) {
	sum := newGated("ok", nil)
	m := NewManager(sum, time.Second, nil)
	_, err := m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.NoError(t, err)

	_, err = m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.True(t, errors.Is(err, ErrRequestInFlight))

	_, err = m.Request(context.Background(), analytics.ViewDashboard, samplePayload())
	require.NoError(t, err, "other views are independent")

	close(sum.release)
	m.Wait()
}

func TestRequestFailure(t *testing.T) {
	sum := newGated("", errors.New("quota exceeded"))
	m := NewManager(sum, time.Second, nil)
	_, err := m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.NoError(t, err)
	close(sum.release)
	m.Wait()

	got := m.State(analytics.ViewVariance)
	require.Equal(t, PhaseFailed, got.Phase)
	require.Contains(t, got.Reason, "quota exceeded")

	_, err = m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.NoError(t, err, "failed requests may be retried")
	m.Cancel(analytics.ViewVariance)
	m.Wait()
}

func TestRequestTimeout(t *testing.T) {
	sum := newGated("never", nil)
	m := NewManager(sum, 20*time.Millisecond, nil)
	_, err := m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.NoError(t, err)
	m.Wait()

	got := m.State(analytics.ViewVariance)
	require.Equal(t, PhaseFailed, got.Phase)
	require.Equal(t, "insight generation timed out", got.Reason)
}

func TestCancelReturnsToIdle(t *testing.T) {
	sum := newGated("late", nil)
	m := NewManager(sum, time.Second, nil)
	_, err := m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	require.NoError(t, err)
	<-sum.prompts

	require.True(t, m.Cancel(analytics.ViewVariance))
	m.Wait()
	require.Equal(t, PhaseIdle, m.State(analytics.ViewVariance).Phase)
	require.False(t, m.Cancel(analytics.ViewVariance))
}

func TestCancelAllExcept(t *testing.T) {
	sum := newGated("x", nil)
	m := NewManager(sum, time.Second, nil)
	_, _ = m.Request(context.Background(), analytics.ViewVariance, samplePayload())
	_, _ = m.Request(context.Background(), analytics.ViewDashboard, samplePayload())

	require.Equal(t, 1, m.CancelAllExcept(analytics.ViewDashboard))
	require.Equal(t, PhaseIdle, m.State(analytics.ViewVariance).Phase)
	require.Equal(t, PhasePending, m.State(analytics.ViewDashboard).Phase)
	close(sum.release)
	m.Wait()
	require.Equal(t, PhaseSucceeded, m.State(analytics.ViewDashboard).Phase)
}

func TestRequestOutlivesCallerContext(t *testing.T) {
	sum := newGated("done", nil)
	m := NewManager(sum, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := m.Request(ctx, analytics.ViewVariance, samplePayload())
	require.NoError(t, err)
	cancel()
	close(sum.release)
	m.Wait()
	require.Equal(t, PhaseSucceeded, m.State(analytics.ViewVariance).Phase)
}

func TestStaticSummarizer(t *testing.T) {
	s := StaticSummarizer{Text: StaticSummary}
	text, err := s.Summarize(context.Background(), "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "### Executive Summary: May 2024 Performance"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = StaticSummarizer{Text: "x", Delay: time.Hour}.Summarize(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderMarkdownStripsFence(t *testing.T) {
	html, err := RenderMarkdown("```markdown\n# Title\n```")
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1>Title</h1>")
}

func TestNoSummarizer(t *testing.T) {
	m := NewManager(nil, 0, nil)
	_, err := m.Request(context.Background(), analytics.ViewVariance, Payload{})
	require.ErrorIs(t, err, ErrNoSummarizer)
}
