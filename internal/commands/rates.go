package commands

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
	"github.com/odyssey-erp/finconsol/internal/seed"
)

type rateOutput struct {
	Market   string `yaml:"market"`
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
	Rate     string `yaml:"rate"`
	HKD      string `yaml:"hkd,omitempty"`
}

func newRatesCommand(load func() (*seed.Dataset, error)) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Print the FX table, optionally converting an amount to HKD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := load()
			if err != nil {
				return err
			}
			var local decimal.Decimal
			if amount != "" {
				if local, err = decimal.NewFromString(amount); err != nil {
					return err
				}
			}
			out, err := ratesOutput(dataset.FXTable(), amount != "", local)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "local amount to convert in every market")

	return cmd
}

func ratesOutput(table *fx.Table, convert bool, local decimal.Decimal) ([]rateOutput, error) {
	quotes := table.Rates()
	out := make([]rateOutput, len(quotes))
	for i, q := range quotes {
		out[i] = rateOutput{Market: string(q.Market), Name: q.Name, Currency: q.Currency, Rate: q.Rate.String()}
		if convert {
			hkd, err := table.ToHKD(q.Market, local)
			if err != nil {
				return nil, err
			}
			out[i].HKD = hkd.StringFixed(2)
		}
	}
	return out, nil
}
