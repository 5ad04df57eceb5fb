// Package seed loads the reference dataset behind the workspace.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/consol"
	"github.com/odyssey-erp/finconsol/internal/consol/fx"
	"github.com/odyssey-erp/finconsol/internal/ingest"
	"github.com/odyssey-erp/finconsol/internal/variance"
)

//go:embed dataset.yaml
var embedded []byte

type ledgerRow struct {
	ID      string             `mapstructure:"id"`
	Label   string             `mapstructure:"label"`
	Level   int                `mapstructure:"level"`
	IsTotal bool               `mapstructure:"is_total"`
	Values  map[string]float64 `mapstructure:"values"`
}

type upload struct {
	ID         string   `mapstructure:"id"`
	Market     string   `mapstructure:"market"`
	Filename   string   `mapstructure:"filename"`
	Status     string   `mapstructure:"status"`
	UploadDate string   `mapstructure:"upload_date"`
	Errors     []string `mapstructure:"errors"`
}

type document struct {
	Period     string                     `mapstructure:"period"`
	FiscalYear int                        `mapstructure:"fiscal_year"`
	FX         map[string]string          `mapstructure:"fx"`
	KPIs       []analytics.KPIMetric      `mapstructure:"kpis"`
	Bridge     analytics.BridgeInput      `mapstructure:"bridge"`
	Trend      []analytics.MonthlyProfit  `mapstructure:"trend"`
	Macro      []analytics.MacroIndicator `mapstructure:"macro"`
	Uploads    []upload                   `mapstructure:"uploads"`
	Ledger     struct {
		Expanded  []string    `mapstructure:"expanded"`
		CrossFoot bool        `mapstructure:"cross_foot"`
		Rows      []ledgerRow `mapstructure:"rows"`
	} `mapstructure:"ledger"`
	Comparison struct {
		Rows       []variance.ComparisonRow `mapstructure:"rows"`
		Thresholds variance.Thresholds      `mapstructure:"thresholds"`
	} `mapstructure:"comparison"`
}

// Dataset is the validated reference data. It implements analytics.Source.
type Dataset struct {
	Period     string
	FiscalYear int
	Expanded   []string
	CrossFoot  bool
	Thresholds variance.Thresholds

	table      *fx.Table
	ledger     []consol.Row
	comparison []variance.ComparisonRow
	kpis       []analytics.KPIMetric
	bridge     analytics.BridgeInput
	trend      []analytics.MonthlyProfit
	macro      []analytics.MacroIndicator
	uploads    []ingest.MarketFile
}

// Load reads the embedded dataset and merges the optional override file on top.
// Every check runs here so a bad dataset stops startup.
func Load(path string) (*Dataset, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(embedded)); err != nil {
		return nil, fmt.Errorf("seed: read embedded dataset: %w", err)
	}
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("seed: merge %s: %w", path, err)
		}
	}
	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("seed: decode dataset: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Dataset, error) {
	table, err := buildTable(doc.FX)
	if err != nil {
		return nil, err
	}
	rows, err := buildLedger(doc.Ledger.Rows)
	if err != nil {
		return nil, err
	}
	tree, err := consol.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("seed: ledger: %w", err)
	}
	if err := consol.MustReconcile(tree, consol.ReconcileOptions{CrossFoot: doc.Ledger.CrossFoot}); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	var errs []error
	for _, k := range doc.KPIs {
		errs = append(errs, k.Validate())
	}
	for _, m := range doc.Macro {
		errs = append(errs, m.Validate())
	}
	for i := range doc.Comparison.Rows {
		kind, err := variance.ParseMetricKind(string(doc.Comparison.Rows[i].Kind))
		errs = append(errs, err)
		doc.Comparison.Rows[i].Kind = kind
	}
	errs = append(errs, doc.Comparison.Thresholds.Validate())
	if _, err := analytics.BuildBridge(doc.Bridge); err != nil {
		errs = append(errs, err)
	}
	uploads, err := buildUploads(doc.Uploads)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("seed: invalid dataset: %w", err)
	}
	fiscalYear := doc.FiscalYear
	if fiscalYear == 0 {
		fiscalYear = analytics.DefaultFiscalYear
	}
	return &Dataset{
		Period:     doc.Period,
		FiscalYear: fiscalYear,
		Expanded:   doc.Ledger.Expanded,
		CrossFoot:  doc.Ledger.CrossFoot,
		Thresholds: doc.Comparison.Thresholds,
		table:      table,
		ledger:     rows,
		comparison: doc.Comparison.Rows,
		kpis:       doc.KPIs,
		bridge:     doc.Bridge,
		trend:      doc.Trend,
		macro:      doc.Macro,
		uploads:    uploads,
	}, nil
}

func buildTable(raw map[string]string) (*fx.Table, error) {
	rates := make(map[fx.Market]decimal.Decimal, len(raw))
	for key, value := range raw {
		market, err := fx.ParseMarket(key)
		if err != nil {
			return nil, fmt.Errorf("seed: fx: %w", err)
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("seed: fx rate for %s: %w", key, err)
		}
		rates[market] = rate
	}
	table := fx.NewTable(rates)
	if err := table.Validate(fx.Markets); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return table, nil
}

func buildLedger(raw []ledgerRow) ([]consol.Row, error) {
	rows := make([]consol.Row, 0, len(raw))
	for _, r := range raw {
		values := consol.Values{Markets: make(map[fx.Market]decimal.Decimal, len(fx.Markets))}
		for col, amount := range r.Values {
			if col == string(consol.ColumnGroup) {
				values.Group = decimal.NewFromFloat(amount)
				continue
			}
			market, err := fx.ParseMarket(col)
			if err != nil {
				return nil, fmt.Errorf("seed: ledger row %s: %w", r.ID, err)
			}
			values.Markets[market] = decimal.NewFromFloat(amount)
		}
		rows = append(rows, consol.Row{ID: r.ID, Label: r.Label, Level: r.Level, IsTotal: r.IsTotal, Values: values})
	}
	return rows, nil
}

func buildUploads(raw []upload) ([]ingest.MarketFile, error) {
	files := make([]ingest.MarketFile, 0, len(raw))
	for _, u := range raw {
		market, err := fx.ParseMarket(u.Market)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", u.ID, err)
		}
		at, err := time.ParseInLocation(ingest.DisplayLayout, u.UploadDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("upload %s: upload date: %w", u.ID, err)
		}
		status := ingest.Status(u.Status)
		switch status {
		case ingest.StatusProcessing, ingest.StatusValid:
			if len(u.Errors) > 0 {
				return nil, fmt.Errorf("upload %s: %s upload must not carry errors", u.ID, status)
			}
		case ingest.StatusError:
			if len(u.Errors) == 0 {
				return nil, fmt.Errorf("upload %s: error upload needs messages", u.ID)
			}
		default:
			return nil, fmt.Errorf("upload %s: unknown status %q", u.ID, u.Status)
		}
		file := ingest.MarketFile{ID: u.ID, Market: market, Filename: u.Filename, Status: status, UploadDate: at, Errors: u.Errors}
		if status.Terminal() {
			file.ResolvedAt = at
		}
		files = append(files, file)
	}
	return files, nil
}

// FXTable returns the conversion table.
func (d *Dataset) FXTable() *fx.Table { return d.table }

// LedgerRows returns a copy of the P&L rows.
func (d *Dataset) LedgerRows() []consol.Row { return append([]consol.Row(nil), d.ledger...) }

// ComparisonRows returns a copy of the variance input rows.
func (d *Dataset) ComparisonRows() []variance.ComparisonRow {
	return append([]variance.ComparisonRow(nil), d.comparison...)
}

// Uploads returns the sample upload records.
func (d *Dataset) Uploads() []ingest.MarketFile { return append([]ingest.MarketFile(nil), d.uploads...) }

func (d *Dataset) KPIs(ctx context.Context) ([]analytics.KPIMetric, error) {
	return append([]analytics.KPIMetric(nil), d.kpis...), ctx.Err()
}

func (d *Dataset) Macro(ctx context.Context) ([]analytics.MacroIndicator, error) {
	return append([]analytics.MacroIndicator(nil), d.macro...), ctx.Err()
}

func (d *Dataset) Bridge(ctx context.Context) (analytics.BridgeInput, error) {
	in := d.bridge
	in.Deltas = append([]analytics.Delta(nil), d.bridge.Deltas...)
	return in, ctx.Err()
}

func (d *Dataset) MonthlyProfit(ctx context.Context) ([]analytics.MonthlyProfit, error) {
	return append([]analytics.MonthlyProfit(nil), d.trend...), ctx.Err()
}
