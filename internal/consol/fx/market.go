package fx

import (
	"errors"
	"fmt"
	"strings"
)

// Market identifies a reporting entity with its own local-currency ledger.
type Market string

const (
	MarketChina  Market = "china"
	MarketUSA    Market = "usa"
	MarketHK     Market = "hk"
	MarketTaiwan Market = "taiwan"
)

// ReportingCurrency is the group currency every market converts into.
const ReportingCurrency = "HKD"

// Markets lists the consolidated markets in column order.
var Markets = []Market{MarketChina, MarketUSA, MarketHK, MarketTaiwan}

var marketMeta = map[Market]struct {
	name     string
	currency string
}{
	MarketChina:  {name: "Mainland China", currency: "CNY"},
	MarketUSA:    {name: "USA", currency: "USD"},
	MarketHK:     {name: "Hong Kong", currency: "HKD"},
	MarketTaiwan: {name: "Taiwan", currency: "TWD"},
}

// Name returns the display name used by the dashboard.
func (m Market) Name() string {
	if meta, ok := marketMeta[m]; ok {
		return meta.name
	}
	return string(m)
}

// Currency returns the ISO code of the market's local currency.
func (m Market) Currency() string {
	return marketMeta[m].currency
}

// Valid reports whether m is one of the consolidated markets.
func (m Market) Valid() bool {
	_, ok := marketMeta[m]
	return ok
}

// ErrUnknownMarket is returned when a market reference cannot be resolved.
var ErrUnknownMarket = errors.New("fx: unknown market")

// ParseMarket resolves a market from its code, display name or currency.
func ParseMarket(raw string) (Market, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("%w: market required", ErrUnknownMarket)
	}
	for _, m := range Markets {
		meta := marketMeta[m]
		if value == string(m) || value == strings.ToLower(meta.name) || value == strings.ToLower(meta.currency) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMarket, raw)
}
