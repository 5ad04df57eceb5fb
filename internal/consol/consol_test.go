package consol

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

func vals(group, china, usa, hk, taiwan int64) Values {
	return Values{
		Group: decimal.NewFromInt(group),
		Markets: map[fx.Market]decimal.Decimal{
			fx.MarketChina:  decimal.NewFromInt(china),
			fx.MarketUSA:    decimal.NewFromInt(usa),
			fx.MarketHK:     decimal.NewFromInt(hk),
			fx.MarketTaiwan: decimal.NewFromInt(taiwan),
		},
	}
}

func seedRows() []Row {
	return []Row{
		{ID: "1", Label: "Gross Revenue", Level: 1, IsTotal: true, Values: vals(4285000, 2100000, 1500000, 400000, 285000)},
		{ID: "2", Label: "Discounts & Allowances", Level: 2, Values: vals(-285000, -150000, -80000, -30000, -25000)},
		{ID: "3", Label: "Net Operating Revenue", Level: 1, IsTotal: true, Values: vals(4000000, 1950000, 1420000, 370000, 260000)},
		{ID: "4", Label: "Cost of Goods Sold", Level: 1, Values: vals(-2400000, -1200000, -850000, -200000, -150000)},
		{ID: "5", Label: "Gross Profit", Level: 1, IsTotal: true, Values: vals(1600000, 750000, 570000, 170000, 110000)},
		{ID: "6", Label: "Operating Expenses", Level: 1, Values: vals(-800000, -350000, -300000, -80000, -70000)},
		{ID: "7", Label: "EBITDA", Level: 1, IsTotal: true, Values: vals(800000, 400000, 270000, 90000, 40000)},
	}
}

func mustTree(t *testing.T, rows []Row) *Tree {
	t.Helper()
	tree, err := Build(rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tree
}

func TestNetOperatingRevenueEqualsGrossPlusDiscountsPerColumn(t *testing.T) {
	tree := mustTree(t, seedRows())
	gross, _ := tree.Lookup("1")
	discounts, _ := tree.Lookup("2")
	net, _ := tree.Lookup("3")
	sum := gross.Row.Values.Add(discounts.Row.Values)
	for _, col := range Columns() {
		if !sum.Get(col).Equal(net.Row.Values.Get(col)) {
			t.Fatalf("column %s: gross+discounts = %s, net operating revenue = %s", col, sum.Get(col), net.Row.Values.Get(col))
		}
	}
	if !net.Row.Values.Get(ColumnGroup).Equal(decimal.NewFromInt(4000000)) {
		t.Fatalf("expected group 4,000,000 got %s", net.Row.Values.Group)
	}
}

func TestReconcileSeedIsClean(t *testing.T) {
	tree := mustTree(t, seedRows())
	if mismatches := Reconcile(tree, ReconcileOptions{CrossFoot: true}); len(mismatches) != 0 {
		t.Fatalf("expected clean reconciliation, got %+v", mismatches)
	}
}

func TestReconcileReportsColumnAndRow(t *testing.T) {
	rows := seedRows()
	rows[4].Values.Markets[fx.MarketUSA] = decimal.NewFromInt(571000)
	tree := mustTree(t, rows)
	mismatches := Reconcile(tree, ReconcileOptions{})
	if len(mismatches) != 2 {
		t.Fatalf("expected 2 mismatches got %d: %+v", len(mismatches), mismatches)
	}
	first := mismatches[0]
	if first.Rule != RuleSubtotal || first.RowID != "5" || first.Column != Column(fx.MarketUSA) {
		t.Fatalf("unexpected first mismatch %+v", first)
	}
	if !first.Want.Equal(decimal.NewFromInt(570000)) {
		t.Fatalf("expected want 570000 got %s", first.Want)
	}
	// EBITDA is checked against the declared Gross Profit, so it drifts by the same amount.
	if mismatches[1].RowID != "7" {
		t.Fatalf("expected EBITDA mismatch got %+v", mismatches[1])
	}

	err := MustReconcile(tree, ReconcileOptions{})
	var recErr *ReconciliationError
	if !errors.As(err, &recErr) || len(recErr.Mismatches) != 2 {
		t.Fatalf("expected ReconciliationError with 2 mismatches got %v", err)
	}
}

func TestReconcileCrossFoot(t *testing.T) {
	rows := seedRows()
	rows[3].Values.Group = decimal.NewFromInt(-2400001)
	rows[4].Values.Group = decimal.NewFromInt(1599999)
	rows[6].Values.Group = decimal.NewFromInt(799999)
	tree := mustTree(t, rows)
	if got := Reconcile(tree, ReconcileOptions{}); len(got) != 0 {
		t.Fatalf("subtotals still chain, expected no mismatches got %+v", got)
	}
	got := Reconcile(tree, ReconcileOptions{CrossFoot: true})
	if len(got) != 3 {
		t.Fatalf("expected 3 cross-foot mismatches got %+v", got)
	}
	for _, m := range got {
		if m.Rule != RuleCrossFoot || m.Column != ColumnGroup {
			t.Fatalf("unexpected mismatch %+v", m)
		}
	}
}

func TestReconcileRollupOfNonTotalParent(t *testing.T) {
	rows := []Row{
		{ID: "a", Label: "Net Revenue", Level: 1, IsTotal: true, Values: vals(100, 40, 30, 20, 10)},
		{ID: "b", Label: "Operating Expenses", Level: 1, Values: vals(-60, -20, -20, -10, -10)},
		{ID: "b1", Label: "Staff", Level: 2, Values: vals(-40, -10, -15, -10, -5)},
		{ID: "b2", Label: "Rent", Level: 2, Values: vals(-20, -10, -5, 0, -5)},
		{ID: "c", Label: "EBITDA", Level: 1, IsTotal: true, Values: vals(40, 20, 10, 10, 0)},
	}
	tree := mustTree(t, rows)
	if got := Reconcile(tree, ReconcileOptions{CrossFoot: true}); len(got) != 0 {
		t.Fatalf("children must not be double counted, got %+v", got)
	}
	rows[3].Values.Markets[fx.MarketHK] = decimal.NewFromInt(-1)
	tree = mustTree(t, rows)
	got := Reconcile(tree, ReconcileOptions{})
	if len(got) != 1 || got[0].Rule != RuleRollup || got[0].RowID != "b" {
		t.Fatalf("expected rollup mismatch on b got %+v", got)
	}
}

func TestBuildLinksParents(t *testing.T) {
	tree := mustTree(t, seedRows())
	discounts, _ := tree.Lookup("2")
	if discounts.Parent != 0 {
		t.Fatalf("expected Discounts parent index 0 got %d", discounts.Parent)
	}
	gross, _ := tree.Lookup("1")
	if len(gross.Children) != 1 || gross.Children[0] != 1 {
		t.Fatalf("unexpected children %+v", gross.Children)
	}
	cogs, _ := tree.Lookup("4")
	if cogs.HasParent() {
		t.Fatalf("level-1 row must be a root")
	}
}

func TestBuildRejectsInvalidRows(t *testing.T) {
	cases := map[string][]Row{
		"level jump": {{ID: "1", Level: 1}, {ID: "2", Level: 3}},
		"first deep": {{ID: "1", Level: 2}},
		"bad level":  {{ID: "1", Level: 4}},
		"duplicate":  {{ID: "1", Level: 1}, {ID: "1", Level: 1}},
		"missing id": {{ID: " ", Level: 1}},
	}
	for name, rows := range cases {
		if _, err := Build(rows); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestToggleExpansionTwiceRestoresSet(t *testing.T) {
	tree := mustTree(t, seedRows())
	e := NewExpansion("1", "3", "5", "7")
	original := NewExpansion(e.Snapshot()...)
	for _, id := range []string{"1", "4"} {
		if _, err := tree.ToggleExpansion(e, id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		if e.Equal(original) {
			t.Fatalf("toggle %s should change the set", id)
		}
		if _, err := tree.ToggleExpansion(e, id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		if !e.Equal(original) {
			t.Fatalf("double toggle of %s changed the set: %v", id, e.Snapshot())
		}
	}
}

func TestExpandableKeepsLevelOneRows(t *testing.T) {
	tree := mustTree(t, seedRows())
	got := tree.Expandable([]string{"6", "2", "junk", " 1 ", "6", ""})
	if len(got) != 2 || got[0] != "1" || got[1] != "6" {
		t.Fatalf("unexpected expandable ids %v", got)
	}
}

func TestToggleExpansionRejectsDeepAndUnknownRows(t *testing.T) {
	tree := mustTree(t, seedRows())
	e := NewExpansion()
	if _, err := tree.ToggleExpansion(e, "2"); !errors.Is(err, ErrNotExpandable) {
		t.Fatalf("expected ErrNotExpandable got %v", err)
	}
	if _, err := tree.ToggleExpansion(e, "99"); !errors.Is(err, ErrUnknownRow) {
		t.Fatalf("expected ErrUnknownRow got %v", err)
	}
	if len(e.Snapshot()) != 0 {
		t.Fatalf("failed toggles must not change the set")
	}
}

func TestVisibleHidesChildrenOfCollapsedRoot(t *testing.T) {
	tree := mustTree(t, seedRows())
	collapsed := tree.Visible(NewExpansion())
	if len(collapsed) != 6 {
		t.Fatalf("expected 6 visible rows got %d", len(collapsed))
	}
	for _, row := range collapsed {
		if row.ID == "2" {
			t.Fatalf("discounts must be hidden while Gross Revenue is collapsed")
		}
	}
	expanded := tree.Visible(NewExpansion("1"))
	if len(expanded) != 7 {
		t.Fatalf("expected 7 visible rows got %d", len(expanded))
	}
	if expanded[1].ID != "2" || expanded[1].Depth != 1 {
		t.Fatalf("expected indented discounts row got %+v", expanded[1])
	}
	if !expanded[0].Expanded || !expanded[0].HasChildren {
		t.Fatalf("expected Gross Revenue to be expanded with children %+v", expanded[0])
	}
}

func TestRenderHKDConvertsMarketColumns(t *testing.T) {
	tree := mustTree(t, seedRows())
	view, err := tree.Render(NewExpansion(), fx.DefaultTable(), CurrencyHKD)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	net := view.Rows[1]
	if net.ID != "3" {
		t.Fatalf("expected Net Operating Revenue second got %s", net.ID)
	}
	if !net.Values.Get(Column(fx.MarketUSA)).Equal(decimal.NewFromInt(11104400)) {
		t.Fatalf("expected USA 11,104,400 HKD got %s", net.Values.Get(Column(fx.MarketUSA)))
	}
	if !net.Values.Group.Equal(decimal.NewFromInt(4000000)) {
		t.Fatalf("group column must not be converted, got %s", net.Values.Group)
	}
	if view.Columns[2].Currency != "HKD" {
		t.Fatalf("expected HKD header got %s", view.Columns[2].Currency)
	}

	local, err := tree.Render(NewExpansion(), fx.DefaultTable(), CurrencyLocal)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !local.Rows[1].Values.Get(Column(fx.MarketUSA)).Equal(decimal.NewFromInt(1420000)) {
		t.Fatalf("local view must keep USD amount")
	}
	if local.Columns[2].Currency != "USD" {
		t.Fatalf("expected USD header got %s", local.Columns[2].Currency)
	}
}

func TestServiceRejectsUnreconciledLedger(t *testing.T) {
	rows := seedRows()
	rows[2].Values.Markets[fx.MarketHK] = decimal.NewFromInt(371000)
	_, err := NewService(rows, fx.DefaultTable(), nil, ReconcileOptions{CrossFoot: true})
	var recErr *ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected ReconciliationError got %v", err)
	}
}

func TestServiceToggleAndRender(t *testing.T) {
	svc, err := NewService(seedRows(), fx.DefaultTable(), []string{"1", "3", "5", "7"}, ReconcileOptions{CrossFoot: true})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	ctx := context.Background()
	expanded, err := svc.Toggle(ctx, svc.DefaultExpanded(), "1")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	view, err := svc.Render(ctx, expanded, CurrencyLocal)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(view.Rows) != 6 {
		t.Fatalf("expected discounts hidden after collapse, got %d rows", len(view.Rows))
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.NewFromInt(-2400000)); got != "-2,400,000" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("1234.5")); got != "1,234.50" {
		t.Fatalf("unexpected format %q", got)
	}
}
