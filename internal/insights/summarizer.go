package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// Summarizer turns a prompt into a Markdown narrative.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiSummarizer calls the Gemini API.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

// NewGeminiSummarizer builds a client for the Gemini developer API.
func NewGeminiSummarizer(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("insights: gemini api key required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("insights: create gemini client: %w", err)
	}
	return &GeminiSummarizer{client: client, model: model}, nil
}

// Summarize sends the prompt and returns the text of the first candidate.
func (g *GeminiSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("insights: gemini generate: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("insights: empty model response")
	}
	return text, nil
}

// StaticSummary is the canned executive summary served in demo mode.
const StaticSummary = `### Executive Summary: May 2024 Performance

**1. Key Performance Drivers**
*   **Revenue & Volume:** Strong performance with **Volume up 0.5%** and **Total Revenue up 5.2%**. This is largely driven by the Mainland China recovery exceeding initial projections.
*   **Profitability:** **EBITDA is up 2.8%**, outperforming budget. However, **Attributable Profit is down 1.4%**, primarily due to one-off tax adjustments in the US market (not visible in high-level operational metrics).

**2. Impact of Macro Factors**
*   **China GDP (+5.2%):** The positive GDP growth is directly correlating with our volume recovery in the region, particularly in on-premise consumption.
*   **Global Sugar Price (+12.5%):** This remains a significant headwind. While Revenue is up, our **COGS variance** shows pressure (-2.1% vs Budget), partially eroding the top-line gains.
*   **Aluminum Index (-3.2%):** Lower packaging costs helped offset some of the sugar price increases, preventing a steeper decline in Gross Margins.

**3. Strategic Recommendations**
*   **Pricing:** Consider a tactical price increase on low-margin SKUs in Q3 to fully offset the sugar spike.
*   **Hedging:** Review sugar hedging positions for FY25 immediately to lock in rates if corrections occur.
*   **Cost Control:** Maintain strict Opex discipline in the US to protect the bottom line against further inflationary pressures.`

// StaticSummarizer returns a fixed text after a delay.
type StaticSummarizer struct {
	Text  string
	Delay time.Duration
}

// NewStaticSummarizer returns the demo summarizer with its two second delay.
func NewStaticSummarizer() StaticSummarizer {
	return StaticSummarizer{Text: StaticSummary, Delay: 2 * time.Second}
}

// Summarize waits for Delay unless ctx ends first.
func (s StaticSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return s.Text, nil
}
