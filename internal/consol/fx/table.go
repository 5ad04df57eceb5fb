package fx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Table maps each market to the multiplier converting local currency into HKD.
type Table struct {
	rates map[Market]decimal.Decimal
}

// MissingRateError reports markets without a configured rate.
type MissingRateError struct {
	Markets []Market
}

func (e *MissingRateError) Error() string {
	names := make([]string, len(e.Markets))
	for i, m := range e.Markets {
		names[i] = string(m)
	}
	return fmt.Sprintf("fx: missing rate for %s", strings.Join(names, ", "))
}

// NewTable constructs a table from the provided rates.
func NewTable(rates map[Market]decimal.Decimal) *Table {
	copied := make(map[Market]decimal.Decimal, len(rates))
	for m, r := range rates {
		copied[m] = r
	}
	return &Table{rates: copied}
}

// DefaultTable returns the budget-cycle rates (1 RMB = 1.08 HKD, 1 USD = 7.82 HKD, 1 TWD = 0.25 HKD).
func DefaultTable() *Table {
	return NewTable(map[Market]decimal.Decimal{
		MarketChina:  decimal.RequireFromString("1.08"),
		MarketUSA:    decimal.RequireFromString("7.82"),
		MarketHK:     decimal.NewFromInt(1),
		MarketTaiwan: decimal.RequireFromString("0.25"),
	})
}

// Rate looks up the HKD multiplier for a market.
func (t *Table) Rate(m Market) (decimal.Decimal, error) {
	if t == nil {
		return decimal.Zero, &MissingRateError{Markets: []Market{m}}
	}
	rate, ok := t.rates[m]
	if !ok {
		return decimal.Zero, &MissingRateError{Markets: []Market{m}}
	}
	return rate, nil
}

// ToHKD converts a local amount: hkd = local * rate.
func (t *Table) ToHKD(m Market, local decimal.Decimal) (decimal.Decimal, error) {
	rate, err := t.Rate(m)
	if err != nil {
		return decimal.Zero, err
	}
	return local.Mul(rate), nil
}

// FromHKD converts back to local currency (hkd / rate), rounded to cents.
func (t *Table) FromHKD(m Market, hkd decimal.Decimal) (decimal.Decimal, error) {
	rate, err := t.Rate(m)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsZero() {
		return decimal.Zero, fmt.Errorf("fx: zero rate for %s", m)
	}
	return hkd.DivRound(rate, 2), nil
}

// Rates returns a copy of the configured rates sorted by market column order.
func (t *Table) Rates() []Quote {
	if t == nil {
		return nil
	}
	out := make([]Quote, 0, len(t.rates))
	for m, r := range t.rates {
		out = append(out, Quote{Market: m, Name: m.Name(), Currency: m.Currency(), Rate: r})
	}
	order := make(map[Market]int, len(Markets))
	for i, m := range Markets {
		order[m] = i
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i].Market]
		oj, jok := order[out[j].Market]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return out[i].Market < out[j].Market
	})
	return out
}

// Quote is a single market rate row.
type Quote struct {
	Market   Market          `json:"market"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}
