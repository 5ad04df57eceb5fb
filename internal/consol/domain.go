package consol

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

// Column names a value column of the consolidated grid.
type Column string

// ColumnGroup is the HKD-equivalent group total column.
const ColumnGroup Column = "group"

// Columns returns the grid columns in display order: group first, then markets.
func Columns() []Column {
	cols := make([]Column, 0, len(fx.Markets)+1)
	cols = append(cols, ColumnGroup)
	for _, m := range fx.Markets {
		cols = append(cols, Column(m))
	}
	return cols
}

// Values holds the per-entity amounts of a ledger row.
type Values struct {
	Group   decimal.Decimal
	Markets map[fx.Market]decimal.Decimal
}

// Get returns the amount for a column, zero when absent.
func (v Values) Get(col Column) decimal.Decimal {
	if col == ColumnGroup {
		return v.Group
	}
	if v.Markets == nil {
		return decimal.Zero
	}
	return v.Markets[fx.Market(col)]
}

// Add sums two value sets column by column.
func (v Values) Add(other Values) Values {
	out := Values{Group: v.Group.Add(other.Group), Markets: make(map[fx.Market]decimal.Decimal, len(fx.Markets))}
	for _, m := range fx.Markets {
		out.Markets[m] = v.Get(Column(m)).Add(other.Get(Column(m)))
	}
	return out
}

// MarketSum adds up the market columns.
func (v Values) MarketSum() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range fx.Markets {
		sum = sum.Add(v.Get(Column(m)))
	}
	return sum
}

// MarshalJSON flattens values into {"group": ..., "china": ..., ...}.
func (v Values) MarshalJSON() ([]byte, error) {
	flat := make(map[string]decimal.Decimal, len(fx.Markets)+1)
	for _, col := range Columns() {
		flat[string(col)] = v.Get(col)
	}
	return json.Marshal(flat)
}

// UnmarshalJSON accepts the flat column representation.
func (v *Values) UnmarshalJSON(data []byte) error {
	var flat map[string]decimal.Decimal
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := Values{Markets: make(map[fx.Market]decimal.Decimal, len(fx.Markets))}
	for key, amount := range flat {
		if key == string(ColumnGroup) {
			out.Group = amount
			continue
		}
		m := fx.Market(key)
		if !m.Valid() {
			return fmt.Errorf("consol: unknown column %q", key)
		}
		out.Markets[m] = amount
	}
	*v = out
	return nil
}

// Row is a single P&L line item as loaded from the reference dataset.
type Row struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Level   int    `json:"level"`
	IsTotal bool   `json:"is_total"`
	Values  Values `json:"values"`
}

// Currency selects how market columns are presented.
type Currency string

const (
	// CurrencyHKD converts market columns into HKD.
	CurrencyHKD Currency = "HKD"
	// CurrencyLocal keeps market columns in local currency.
	CurrencyLocal Currency = "Local"
)

// ParseCurrency normalises the currency toggle value.
func ParseCurrency(raw string) (Currency, error) {
	switch raw {
	case "", "HKD", "hkd":
		return CurrencyHKD, nil
	case "Local", "local", "LOCAL":
		return CurrencyLocal, nil
	}
	return "", fmt.Errorf("consol: unsupported currency view %q", raw)
}
