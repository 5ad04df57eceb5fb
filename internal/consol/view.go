package consol

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

// VisibleRow is a grid row ready for display.
type VisibleRow struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Level       int    `json:"level"`
	Depth       int    `json:"depth"`
	IsTotal     bool   `json:"is_total"`
	Expandable  bool   `json:"expandable"`
	Expanded    bool   `json:"expanded"`
	HasChildren bool   `json:"has_children"`
	Values      Values `json:"values"`
}

// ColumnHeader describes a grid column and the currency it is presented in.
type ColumnHeader struct {
	Key      Column `json:"key"`
	Label    string `json:"label"`
	Currency string `json:"currency"`
}

// View is the renderable consolidated grid.
type View struct {
	Currency Currency       `json:"currency"`
	Columns  []ColumnHeader `json:"columns"`
	Rows     []VisibleRow   `json:"rows"`
}

// Visible lists level-1 rows plus the descendants of expanded level-1 rows.
func (t *Tree) Visible(e *Expansion) []VisibleRow {
	if t == nil {
		return nil
	}
	rows := make([]VisibleRow, 0, len(t.nodes))
	for i, node := range t.nodes {
		root := t.Root(i)
		rootID := t.nodes[root].Row.ID
		if root != i && !e.Contains(rootID) {
			continue
		}
		rows = append(rows, VisibleRow{
			ID:          node.Row.ID,
			Label:       node.Row.Label,
			Level:       node.Row.Level,
			Depth:       t.Depth(i),
			IsTotal:     node.Row.IsTotal,
			Expandable:  node.Row.Level == minLevel,
			Expanded:    node.Row.Level == minLevel && e.Contains(node.Row.ID),
			HasChildren: len(node.Children) > 0,
			Values:      node.Row.Values,
		})
	}
	return rows
}

// Render builds the grid for the currency toggle. Group is always HKD.
func (t *Tree) Render(e *Expansion, table *fx.Table, currency Currency) (View, error) {
	view := View{Currency: currency, Columns: headers(currency)}
	rows := t.Visible(e)
	for i := range rows {
		converted, err := ConvertValues(rows[i].Values, table, currency)
		if err != nil {
			return View{}, err
		}
		rows[i].Values = converted
	}
	view.Rows = rows
	return view, nil
}

// ConvertValues applies hkd = local * rate[market] to market columns when the HKD view is active.
func ConvertValues(v Values, table *fx.Table, currency Currency) (Values, error) {
	out := Values{Group: v.Group, Markets: make(map[fx.Market]decimal.Decimal, len(fx.Markets))}
	for _, m := range fx.Markets {
		local := v.Get(Column(m))
		switch currency {
		case CurrencyLocal:
			out.Markets[m] = local
		case CurrencyHKD:
			hkd, err := table.ToHKD(m, local)
			if err != nil {
				return Values{}, err
			}
			out.Markets[m] = hkd
		default:
			return Values{}, fmt.Errorf("consol: unsupported currency view %q", currency)
		}
	}
	return out, nil
}

func headers(currency Currency) []ColumnHeader {
	out := []ColumnHeader{{Key: ColumnGroup, Label: "Group Total", Currency: fx.ReportingCurrency}}
	for _, m := range fx.Markets {
		ccy := m.Currency()
		if currency == CurrencyHKD {
			ccy = fx.ReportingCurrency
		}
		out = append(out, ColumnHeader{Key: Column(m), Label: m.Name(), Currency: ccy})
	}
	return out
}
