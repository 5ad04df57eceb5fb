package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/consol"
)

// WriteKPICSV serialises the headline cards to CSV.
func WriteKPICSV(w io.Writer, kpis []analytics.KPIMetric) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value", "Variance %", "Trend"}); err != nil {
		return err
	}
	for _, k := range kpis {
		if err := writer.Write([]string{k.Label, k.Value, formatFloat(k.Variance), string(k.Trend)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBridgeCSV emits the waterfall steps with their bar geometry.
func WriteBridgeCSV(w io.Writer, steps []analytics.Step) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Step", "Value", "Start", "End", "Kind"}); err != nil {
		return err
	}
	for _, s := range steps {
		if err := writer.Write([]string{
			s.Name,
			formatFloat(s.Value),
			formatFloat(s.Start),
			formatFloat(s.End),
			string(s.Kind()),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits monthly and cumulative profit.
func WriteTrendCSV(w io.Writer, points []analytics.TrendPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Month", "Profit", "Cumulative"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{p.Month, formatFloat(p.Profit), formatFloat(p.Cumulative)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteLedgerCSV prints the visible ledger grid with formatted amounts.
func WriteLedgerCSV(w io.Writer, view consol.View) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	header := []string{"Line Item"}
	for _, col := range view.Columns {
		header = append(header, col.Label+" ("+col.Currency+")")
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range view.Rows {
		record := []string{row.Label}
		for _, col := range view.Columns {
			record = append(record, consol.FormatAmount(row.Values.Get(col.Key)))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
