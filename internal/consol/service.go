package consol

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

// Service serves the consolidated grid from a reconciled ledger.
type Service struct {
	tree            *Tree
	table           *fx.Table
	defaultExpanded []string
}

// NewService builds the ledger tree and reconciles it. A mismatch fails loudly.
func NewService(rows []Row, table *fx.Table, defaultExpanded []string, opts ReconcileOptions) (*Service, error) {
	if table == nil {
		return nil, fmt.Errorf("consol: fx table required")
	}
	tree, err := Build(rows)
	if err != nil {
		return nil, err
	}
	if err := MustReconcile(tree, opts); err != nil {
		return nil, err
	}
	for _, id := range defaultExpanded {
		if _, err := tree.Lookup(id); err != nil {
			return nil, fmt.Errorf("consol: default expansion: %w", err)
		}
	}
	return &Service{tree: tree, table: table, defaultExpanded: append([]string(nil), defaultExpanded...)}, nil
}

// DefaultExpanded returns the initial expansion set for a new view.
func (s *Service) DefaultExpanded() []string {
	return append([]string(nil), s.defaultExpanded...)
}

// Tree exposes the reconciled hierarchy.
func (s *Service) Tree() *Tree {
	return s.tree
}

// Render produces the grid for the given expansion set and currency toggle.
func (s *Service) Render(ctx context.Context, expanded []string, currency Currency) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	return s.tree.Render(NewExpansion(expanded...), s.table, currency)
}

// Toggle flips a level-1 row and returns the new expansion snapshot.
func (s *Service) Toggle(ctx context.Context, expanded []string, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := NewExpansion(expanded...)
	if _, err := s.tree.ToggleExpansion(e, id); err != nil {
		return nil, err
	}
	return e.Snapshot(), nil
}

// Expandable drops ids that are unknown or not level-1 rows.
func (s *Service) Expandable(ids []string) []string {
	return s.tree.Expandable(ids)
}

// Reconcile re-runs the reconciliation pass, including the cross-foot check when asked.
func (s *Service) Reconcile(opts ReconcileOptions) []Mismatch {
	return Reconcile(s.tree, opts)
}
