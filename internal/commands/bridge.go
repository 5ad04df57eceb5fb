package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/seed"
)

type stepOutput struct {
	Name  string  `yaml:"name"`
	Kind  string  `yaml:"kind"`
	Value float64 `yaml:"value"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

func newBridgeCommand(load func() (*seed.Dataset, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Print the sequenced profit bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := load()
			if err != nil {
				return err
			}
			in, err := dataset.Bridge(context.Background())
			if err != nil {
				return err
			}
			steps, err := analytics.BuildBridge(in)
			if err != nil {
				return err
			}
			out := make([]stepOutput, len(steps))
			for i, s := range steps {
				out[i] = stepOutput{Name: s.Name, Kind: string(s.Kind()), Value: s.Value, Start: s.Start, End: s.End}
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
}
