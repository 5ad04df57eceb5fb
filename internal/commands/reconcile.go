package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/finconsol/internal/consol"
	"github.com/odyssey-erp/finconsol/internal/seed"
)

// ErrUnreconciled is returned when the ledger fails any reconciliation rule.
var ErrUnreconciled = errors.New("ledger does not reconcile")

type mismatchOutput struct {
	Rule   string `yaml:"rule"`
	Row    string `yaml:"row"`
	Label  string `yaml:"label"`
	Column string `yaml:"column"`
	Want   string `yaml:"want"`
	Got    string `yaml:"got"`
}

type reconcileOutput struct {
	Rows       int              `yaml:"rows"`
	CrossFoot  bool             `yaml:"cross_foot"`
	Mismatches []mismatchOutput `yaml:"mismatches"`
}

func newReconcileCommand(seedPath *string) *cobra.Command {
	var crossFoot bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check subtotal, rollup and cross-foot rules of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runReconcile(*seedPath, crossFoot)
			if err != nil {
				return err
			}
			if err := writeYAML(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if len(out.Mismatches) > 0 {
				return fmt.Errorf("%w: %d mismatches", ErrUnreconciled, len(out.Mismatches))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&crossFoot, "crossfoot", true, "also require group == sum of markets on every row")

	return cmd
}

func runReconcile(seedPath string, crossFoot bool) (reconcileOutput, error) {
	out := reconcileOutput{CrossFoot: crossFoot, Mismatches: []mismatchOutput{}}
	dataset, err := seed.Load(seedPath)
	var recErr *consol.ReconciliationError
	switch {
	case errors.As(err, &recErr):
		out.Mismatches = append(out.Mismatches, toMismatches(recErr.Mismatches)...)
		return out, nil
	case err != nil:
		return out, err
	}
	rows := dataset.LedgerRows()
	tree, err := consol.Build(rows)
	if err != nil {
		return out, err
	}
	out.Rows = len(rows)
	out.Mismatches = append(out.Mismatches, toMismatches(consol.Reconcile(tree, consol.ReconcileOptions{CrossFoot: crossFoot}))...)
	return out, nil
}

func toMismatches(in []consol.Mismatch) []mismatchOutput {
	out := make([]mismatchOutput, len(in))
	for i, m := range in {
		out[i] = mismatchOutput{
			Rule:   string(m.Rule),
			Row:    m.RowID,
			Label:  m.Label,
			Column: string(m.Column),
			Want:   m.Want.String(),
			Got:    m.Got.String(),
		}
	}
	return out
}
