package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/finconsol/internal/seed"
)

// NewRootCommand creates the consolctl command tree.
func NewRootCommand() *cobra.Command {
	var seedPath string

	rootCmd := &cobra.Command{
		Use:   "consolctl",
		Short: "Inspect and check the consolidation dataset",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "dataset override file merged over the embedded dataset")

	load := func() (*seed.Dataset, error) {
		return seed.Load(seedPath)
	}

	rootCmd.AddCommand(
		newReconcileCommand(&seedPath),
		newValidateCommand(),
		newVarianceCommand(load),
		newBridgeCommand(load),
		newRatesCommand(load),
	)

	return rootCmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
