package consol

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rule names the invariant a mismatch violates.
type Rule string

const (
	// RuleSubtotal: a total equals the previous total plus the rows contributing since it.
	RuleSubtotal Rule = "subtotal"
	// RuleRollup: a non-total row with children equals the sum of its children.
	RuleRollup Rule = "rollup"
	// RuleCrossFoot: the group column equals the sum of the market columns.
	RuleCrossFoot Rule = "crossfoot"
)

// Mismatch reports a single column that fails reconciliation.
type Mismatch struct {
	Rule   Rule            `json:"rule"`
	RowID  string          `json:"row_id"`
	Label  string          `json:"label"`
	Column Column          `json:"column"`
	Want   decimal.Decimal `json:"want"`
	Got    decimal.Decimal `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s row %s (%s) column %s: want %s got %s", m.Rule, m.RowID, m.Label, m.Column, m.Want, m.Got)
}

// ReconcileOptions tunes the reconciliation pass.
type ReconcileOptions struct {
	CrossFoot bool
	Tolerance decimal.Decimal
}

// ReconciliationError wraps every mismatch found at load time.
type ReconciliationError struct {
	Mismatches []Mismatch
}

func (e *ReconciliationError) Error() string {
	lines := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		lines[i] = m.String()
	}
	return fmt.Sprintf("consol: ledger does not reconcile (%d mismatches): %s", len(e.Mismatches), strings.Join(lines, "; "))
}

// Reconcile checks every total row column by column.
//
// Contributing rows are non-total rows whose parent is absent or a total row;
// children of a non-total row are checked against that row instead.
func Reconcile(t *Tree, opts ReconcileOptions) []Mismatch {
	if t == nil {
		return nil
	}
	mismatches := make([]Mismatch, 0)
	var anchor *Values
	pending := Values{}
	contributed := false

	for i, node := range t.nodes {
		row := node.Row
		if opts.CrossFoot {
			mismatches = appendIfDiff(mismatches, opts.Tolerance, RuleCrossFoot, row, ColumnGroup, row.Values.MarketSum(), row.Values.Group)
		}
		if !row.IsTotal && len(node.Children) > 0 {
			sum := Values{}
			for _, child := range node.Children {
				sum = sum.Add(t.nodes[child].Row.Values)
			}
			for _, col := range Columns() {
				mismatches = appendIfDiff(mismatches, opts.Tolerance, RuleRollup, row, col, sum.Get(col), row.Values.Get(col))
			}
		}
		if row.IsTotal {
			if anchor != nil || contributed {
				want := pending
				if anchor != nil {
					want = anchor.Add(pending)
				}
				for _, col := range Columns() {
					mismatches = appendIfDiff(mismatches, opts.Tolerance, RuleSubtotal, row, col, want.Get(col), row.Values.Get(col))
				}
			}
			declared := row.Values
			anchor = &declared
			pending = Values{}
			contributed = false
			continue
		}
		if node.Parent < 0 || t.nodes[node.Parent].Row.IsTotal {
			pending = pending.Add(t.nodes[i].Row.Values)
			contributed = true
		}
	}
	return mismatches
}

// MustReconcile returns a ReconciliationError listing every mismatch.
func MustReconcile(t *Tree, opts ReconcileOptions) error {
	if mismatches := Reconcile(t, opts); len(mismatches) > 0 {
		return &ReconciliationError{Mismatches: mismatches}
	}
	return nil
}

func appendIfDiff(out []Mismatch, tolerance decimal.Decimal, rule Rule, row Row, col Column, want, got decimal.Decimal) []Mismatch {
	if want.Sub(got).Abs().LessThanOrEqual(tolerance.Abs()) {
		return out
	}
	return append(out, Mismatch{Rule: rule, RowID: row.ID, Label: row.Label, Column: col, Want: want, Got: got})
}
