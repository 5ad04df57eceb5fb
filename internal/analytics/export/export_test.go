package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/consol"
	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	return records
}

func TestWriteKPICSV(t *testing.T) {
	buf := &bytes.Buffer{}
	kpis := []analytics.KPIMetric{{ID: "1", Label: "Total Revenue", Value: "$4,285m", Variance: 5.2, Trend: analytics.TrendUp}}
	if err := WriteKPICSV(buf, kpis); err != nil {
		t.Fatalf("kpi csv error: %v", err)
	}
	records := readAll(t, buf)
	if len(records) != 2 || records[1][1] != "$4,285m" || records[1][2] != "5.20" {
		t.Fatalf("unexpected records %v", records)
	}
}

func TestWriteBridgeCSV(t *testing.T) {
	steps, err := analytics.BuildBridge(analytics.BridgeInput{
		StartLabel: "LY Actual",
		Start:      800,
		Deltas:     []analytics.Delta{{Name: "Mix", Value: -30}},
		EndLabel:   "Budget",
	})
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	buf := &bytes.Buffer{}
	if err := WriteBridgeCSV(buf, steps); err != nil {
		t.Fatalf("bridge csv error: %v", err)
	}
	records := readAll(t, buf)
	if records[2][0] != "Mix" || records[2][2] != "770.00" || records[2][4] != "decrease" {
		t.Fatalf("unexpected mix record %v", records[2])
	}
}

func TestWriteLedgerCSV(t *testing.T) {
	rows := []consol.Row{{ID: "1", Label: "Gross Revenue", Level: 1, IsTotal: true, Values: consol.Values{
		Group: decimal.NewFromInt(4285000),
		Markets: map[fx.Market]decimal.Decimal{
			fx.MarketChina:  decimal.NewFromInt(2100000),
			fx.MarketUSA:    decimal.NewFromInt(1500000),
			fx.MarketHK:     decimal.NewFromInt(400000),
			fx.MarketTaiwan: decimal.NewFromInt(285000),
		},
	}}}
	tree, err := consol.Build(rows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	view, err := tree.Render(consol.NewExpansion(), fx.DefaultTable(), consol.CurrencyLocal)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	buf := &bytes.Buffer{}
	if err := WriteLedgerCSV(buf, view); err != nil {
		t.Fatalf("ledger csv error: %v", err)
	}
	records := readAll(t, buf)
	if records[0][1] != "Group Total (HKD)" || records[0][3] != "USA (USD)" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][1] != "4,285,000" {
		t.Fatalf("unexpected amount %v", records[1])
	}
}
